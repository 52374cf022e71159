package flarm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"gdl90-bridge/internal/state"
)

// Config controls the serial proximity reader.
//
// The device is typically a FLARM or compatible unit on /dev/ttyUSB* or
// /dev/ttyAMA* at 38400 baud. Failures must not bring down the main process:
// the device may be unplugged and replugged at any time, so the reader
// reconnects indefinitely with a fixed delay.
type Config struct {
	Device string
	Baud   int

	// ReconnectDelay is how long to wait after the device disappears or a
	// read fails before trying to open it again.
	ReconnectDelay time.Duration
}

// Service reads NMEA sentences from the serial device and hands interpreted
// ownship updates to the emit callback. The callback must not block.
type Service struct {
	cfg  Config
	emit func(state.TrackUpdate)

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closer io.Closer
}

func New(cfg Config, emit func(state.TrackUpdate)) *Service {
	return &Service{cfg: cfg, emit: emit}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("flarm service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if strings.TrimSpace(s.cfg.Device) == "" {
		return fmt.Errorf("flarm device is empty")
	}
	if s.emit == nil {
		return fmt.Errorf("flarm emit callback is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(childCtx)
	return nil
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()

	device := strings.TrimSpace(s.cfg.Device)
	baud := s.cfg.Baud
	if baud == 0 {
		baud = 38400
	}
	delay := s.cfg.ReconnectDelay
	if delay <= 0 {
		delay = 10 * time.Second
	}

	log.Printf("flarm enabled device=%s baud=%d", device, baud)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, err := openSerial(device, baud)
		if err != nil {
			log.Printf("flarm open failed device=%s baud=%d: %v", device, baud, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}

		s.mu.Lock()
		// Swap the closer so Close() tears down the device; the serial
		// read timeout bounds how long the reader waits to notice.
		s.closer = f
		s.mu.Unlock()

		s.readLines(ctx, f)
		_ = f.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// maxPendingBytes bounds buffered partial-sentence bytes; NMEA sentences are
// at most 82 chars, so anything near this is a device stuck mid-sentence.
const maxPendingBytes = 4096

func (s *Service) readLines(ctx context.Context, r io.Reader) {
	buf := make([]byte, 512)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := r.Read(buf)
		if err != nil {
			// The serial read timeout surfaces a quiet line as a zero-byte
			// read, which os.File reports as EOF. Keep polling so
			// cancellation is observed within the timeout.
			if n == 0 && errors.Is(err, io.EOF) {
				continue
			}
			log.Printf("flarm read stopped: %v", err)
			return
		}

		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := string(pending[:i])
			pending = pending[i+1:]
			s.handleLine(line)
		}
		if len(pending) > maxPendingBytes {
			pending = pending[:0]
		}
	}
}

func (s *Service) handleLine(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}
	// Some devices interleave non-NMEA chatter; filter quickly.
	if !strings.HasPrefix(line, "$") {
		return
	}

	sent, err := parseSentence(line)
	if err != nil {
		// Noise on the wire is routine; drop the sentence and move on.
		return
	}
	if u, ok := interpret(time.Now().UTC(), sent); ok {
		s.emit(u)
	}
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}
