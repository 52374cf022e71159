// Package sim generates synthetic traffic for display testing: N targets
// orbiting a configured center, fed through the same update channel as the
// real ingestion adapters.
package sim

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"gdl90-bridge/internal/state"
)

// Synthetic targets use addresses from the self-assigned block so they can
// never collide with a real airframe.
const icaoBase uint32 = 0xF00000

const emitterLight byte = 0x01

type Config struct {
	Count int

	CenterLatDeg float64
	CenterLonDeg float64

	RadiusNm float64
	Period   time.Duration
	GroundKt int
	AltFeet  int

	// UpdateInterval is how often each target's position is re-emitted.
	UpdateInterval time.Duration
}

// Worker periodically emits one TrackUpdate per simulated target. The emit
// callback must not block.
type Worker struct {
	cfg  Config
	emit func(state.TrackUpdate)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, emit func(state.TrackUpdate)) *Worker {
	return &Worker{cfg: cfg, emit: emit}
}

func (w *Worker) Start(ctx context.Context) error {
	if w == nil {
		return fmt.Errorf("sim worker is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if w.emit == nil {
		return fmt.Errorf("sim emit callback is nil")
	}
	if w.cfg.Count <= 0 {
		return fmt.Errorf("sim count must be positive")
	}
	if w.cancel != nil {
		return nil
	}

	interval := w.cfg.UpdateInterval
	if interval <= 0 {
		interval = 1 * time.Second
	}

	childCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		log.Printf("sim enabled targets=%d center=%.4f,%.4f radius_nm=%.1f",
			w.cfg.Count, w.cfg.CenterLatDeg, w.cfg.CenterLonDeg, w.cfg.RadiusNm)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		w.emitAll(time.Now().UTC())
		for {
			select {
			case <-childCtx.Done():
				return
			case <-ticker.C:
				w.emitAll(time.Now().UTC())
			}
		}
	}()
	return nil
}

func (w *Worker) Close() {
	if w == nil || w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
	w.wg.Wait()
}

func (w *Worker) emitAll(now time.Time) {
	for i, tgt := range targets(w.cfg, now) {
		u := state.TrackUpdate{
			Source:       state.SourceSynthetic,
			Address:      state.Address(icaoBase + uint32(i)),
			ObservedAt:   now,
			Callsign:     state.String(fmt.Sprintf("SIM%03d", i+1)),
			LatDeg:       state.Float(tgt.latDeg),
			LonDeg:       state.Float(tgt.lonDeg),
			AltPressFeet: state.Int(tgt.altFeet),
			GroundKt:     state.Int(tgt.groundKt),
			VvelFpm:      state.Int(0),
			TrackDeg:     state.Float(tgt.trackDeg),
			NIC:          state.Byte(8),
			NACp:         state.Byte(8),
			Emitter:      state.Byte(emitterLight),
			Airborne:     state.Bool(true),
		}
		w.emit(u)
	}
}

type target struct {
	latDeg   float64
	lonDeg   float64
	altFeet  int
	trackDeg float64
	groundKt int
}

// targets places Count aircraft evenly around a circle of RadiusNm about the
// center, advancing with time so each completes one lap per Period.
func targets(cfg Config, now time.Time) []target {
	if cfg.Count <= 0 {
		return nil
	}

	period := cfg.Period
	if period <= 0 {
		period = 90 * time.Second
	}
	radiusNm := cfg.RadiusNm
	if radiusNm <= 0 {
		radiusNm = 2.0
	}
	groundKt := cfg.GroundKt
	if groundKt <= 0 {
		groundKt = 120
	}
	baseAlt := cfg.AltFeet
	if baseAlt == 0 {
		baseAlt = 4500
	}

	// One degree of latitude is ~60 NM.
	radiusDeg := radiusNm / 60.0

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())
	baseTheta := 2 * math.Pi * phase

	out := make([]target, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		theta := baseTheta + 2*math.Pi*(float64(i)/float64(cfg.Count))

		latDeg := cfg.CenterLatDeg + radiusDeg*math.Cos(theta)
		lonDeg := cfg.CenterLonDeg + radiusDeg*math.Sin(theta)/math.Cos(cfg.CenterLatDeg*math.Pi/180.0)
		trk := math.Mod((theta*180/math.Pi)+90, 360)
		if trk < 0 {
			trk += 360
		}

		// Stagger altitude a little between targets.
		alt := baseAlt + (i-cfg.Count/2)*300

		out = append(out, target{
			latDeg:   latDeg,
			lonDeg:   lonDeg,
			altFeet:  alt,
			trackDeg: trk,
			groundKt: groundKt,
		})
	}
	return out
}
