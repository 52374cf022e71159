// Package statusled drives an optional GPIO status LED: lit while ownship
// has a valid GPS fix, dark otherwise. LED failures never affect
// broadcasting.
package statusled

import (
	"fmt"
	"log"
	"sync"
)

var openLineFn = openLine

type lineDriver interface {
	SetValue(v int) error
	Close() error
}

type Config struct {
	Enable bool

	// Chip is the gpiochip device name, e.g. "gpiochip0".
	Chip string
	// Line is the line offset on that chip.
	Line int
}

type Service struct {
	cfg Config

	mu      sync.Mutex
	drv     lineDriver
	lit     bool
	haveLit bool
	failed  bool
}

func New(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Open claims the GPIO line. Callers may ignore the error: a Service whose
// line could not be claimed accepts Set calls and does nothing.
func (s *Service) Open() error {
	if s == nil || !s.cfg.Enable {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drv != nil {
		return nil
	}

	drv, err := openLineFn(s.cfg.Chip, s.cfg.Line)
	if err != nil {
		s.failed = true
		log.Printf("statusled open failed chip=%s line=%d: %v", s.cfg.Chip, s.cfg.Line, err)
		return fmt.Errorf("statusled: %w", err)
	}
	s.drv = drv
	log.Printf("statusled enabled chip=%s line=%d", s.cfg.Chip, s.cfg.Line)
	return nil
}

// Set turns the LED on or off. Repeated calls with the same value are
// cheap; hardware is only touched on a change.
func (s *Service) Set(on bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drv == nil {
		return
	}
	if s.haveLit && s.lit == on {
		return
	}

	v := 0
	if on {
		v = 1
	}
	if err := s.drv.SetValue(v); err != nil {
		if !s.failed {
			s.failed = true
			log.Printf("statusled write failed: %v", err)
		}
		return
	}
	s.lit = on
	s.haveLit = true
	s.failed = false
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drv == nil {
		return
	}
	// Leave the LED dark on shutdown.
	_ = s.drv.SetValue(0)
	_ = s.drv.Close()
	s.drv = nil
}
