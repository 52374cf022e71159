// Package emitter runs the emission scheduler: the single goroutine that
// owns the entity state store and the UDP socket, drains the update channel,
// and broadcasts the periodic GDL90 message set.
package emitter

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gdl90-bridge/internal/gdl90"
	"gdl90-bridge/internal/replay"
	"gdl90-bridge/internal/state"
	"gdl90-bridge/internal/udp"
)

const emitterLight byte = 0x01

type Config struct {
	// Dest is the UDP destination, typically a broadcast address.
	Dest string

	Tick               time.Duration
	HeartbeatInterval  time.Duration
	OwnshipInterval    time.Duration
	GeoAltInterval     time.Duration
	TrafficMinInterval time.Duration
	StaleAfter         time.Duration

	// MaxUpdatesPerTick bounds how much of the channel backlog one tick may
	// drain, so a burst cannot starve emission.
	MaxUpdatesPerTick int

	// ChannelCapacity sizes the bounded update channel the adapters push
	// into.
	ChannelCapacity int

	OwnshipICAO     [3]byte
	OwnshipCallsign string

	// Override, when non-nil, pins every ownship kinematic field to a static
	// value and takes precedence over the proximity feed.
	Override *Override

	// RecordPath, when set, logs every sent frame for offline analysis.
	RecordPath string
}

// Override mirrors the static ownship-location configuration.
type Override struct {
	LatDeg     float64
	LonDeg     float64
	AltPressFt int
	AltGeoFt   int
	GroundKt   int
	TrackDeg   float64
	VvelFpm    int
	GPSValid   bool
}

type sink interface {
	Send(payload []byte) error
	Close() error
}

type Snapshot struct {
	Dest         string `json:"dest"`
	SocketOpen   bool   `json:"socket_open"`
	TrafficCount int    `json:"traffic_count"`
	GPSValid     bool   `json:"gps_valid"`
	FramesSent   uint64 `json:"frames_sent"`
	UpdatesSeen  uint64 `json:"updates_seen"`
	Dropped      uint64 `json:"dropped"`
	LastError    string `json:"last_error,omitempty"`
}

// Service is the emission scheduler. All store and socket access happens on
// its single goroutine; adapters feed it through Push.
type Service struct {
	cfg     Config
	updates chan state.TrackUpdate
	store   *state.Store

	// OnGPSValid, when set before Start, observes ownship GPS validity once
	// per tick (used to drive the status LED).
	OnGPSValid func(bool)

	dialFn func() (sink, error)
	conn   sink
	rec    *replay.Writer

	lastHeartbeat time.Time
	lastOwnship   time.Time
	lastGeoAlt    time.Time
	lastDialTry   time.Time

	mu   sync.RWMutex
	snap Snapshot

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config) *Service {
	if cfg.Tick <= 0 {
		cfg.Tick = 20 * time.Millisecond
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 1 * time.Second
	}
	if cfg.OwnshipInterval <= 0 {
		cfg.OwnshipInterval = 1 * time.Second
	}
	if cfg.GeoAltInterval <= 0 {
		cfg.GeoAltInterval = 1 * time.Second
	}
	if cfg.TrafficMinInterval <= 0 {
		cfg.TrafficMinInterval = 500 * time.Millisecond
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 60 * time.Second
	}
	if cfg.MaxUpdatesPerTick <= 0 {
		cfg.MaxUpdatesPerTick = 512
	}
	if cfg.ChannelCapacity <= 0 {
		cfg.ChannelCapacity = 1000
	}

	s := &Service{
		cfg:     cfg,
		updates: make(chan state.TrackUpdate, cfg.ChannelCapacity),
		store:   state.NewStore(),
		snap:    Snapshot{Dest: cfg.Dest},
	}
	s.dialFn = func() (sink, error) { return udp.NewBroadcaster(cfg.Dest) }
	return s
}

// Push hands one update to the scheduler without blocking. When the channel
// is full the update is dropped: freshness is favored over completeness.
func (s *Service) Push(u state.TrackUpdate) {
	select {
	case s.updates <- u:
	default:
		s.mu.Lock()
		s.snap.Dropped++
		s.mu.Unlock()
	}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("emitter service is nil")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}
	if s.cancel != nil {
		return nil
	}

	if s.cfg.RecordPath != "" {
		rec, err := replay.CreateWriter(s.cfg.RecordPath)
		if err != nil {
			return fmt.Errorf("create frame log: %w", err)
		}
		s.rec = rec
		log.Printf("emitter recording frames path=%s", s.cfg.RecordPath)
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("emitter started dest=%s tick=%s", s.cfg.Dest, s.cfg.Tick)
		ticker := time.NewTicker(s.cfg.Tick)
		defer ticker.Stop()

		for {
			select {
			case <-childCtx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()
	return nil
}

func (s *Service) Close() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.wg.Wait()

	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.rec != nil {
		_ = s.rec.Close()
		s.rec = nil
	}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// tick is one scheduler pass: drain, sweep, then emit whatever is due.
func (s *Service) tick(now time.Time) {
	merged := uint64(0)
drain:
	for i := 0; i < s.cfg.MaxUpdatesPerTick; i++ {
		select {
		case u := <-s.updates:
			s.store.Merge(u)
			merged++
		default:
			break drain
		}
	}
	if merged > 0 {
		s.mu.Lock()
		s.snap.UpdatesSeen += merged
		s.mu.Unlock()
	}

	gpsValid := s.gpsValid()
	if s.OnGPSValid != nil {
		s.OnGPSValid(gpsValid)
	}

	if s.conn == nil && !s.redial(now) {
		s.publish(gpsValid)
		return
	}

	if now.Sub(s.lastHeartbeat) >= s.cfg.HeartbeatInterval {
		s.lastHeartbeat = now
		s.send(now, gdl90.HeartbeatFrameAt(now, gpsValid))
		if s.rec != nil {
			_ = s.rec.Flush()
		}
	}
	if now.Sub(s.lastOwnship) >= s.cfg.OwnshipInterval {
		if r, ok := s.ownshipReport(gpsValid); ok {
			s.lastOwnship = now
			s.send(now, gdl90.OwnshipReportFrame(r))
		}
	}
	if now.Sub(s.lastGeoAlt) >= s.cfg.GeoAltInterval {
		if g, ok := s.geoAltitude(); ok {
			s.lastGeoAlt = now
			s.send(now, g.FrameBytes())
		}
	}

	s.store.EachTraffic(func(e *state.Entity) {
		if s.conn == nil {
			return
		}
		if !e.ReadyForReport() || !e.ShouldEmit(now, s.cfg.TrafficMinInterval) {
			return
		}
		s.send(now, gdl90.TrafficReportFrame(trafficReport(e)))
	})

	if removed := s.store.Sweep(now, s.cfg.StaleAfter); len(removed) > 0 {
		for _, addr := range removed {
			log.Printf("traffic expired icao=%06X", addr)
		}
	}

	s.publish(gpsValid)
}

// redial recreates the UDP socket, at most once per second.
func (s *Service) redial(now time.Time) bool {
	if now.Sub(s.lastDialTry) < 1*time.Second {
		return false
	}
	s.lastDialTry = now

	conn, err := s.dialFn()
	if err != nil {
		s.setError(fmt.Sprintf("udp open failed dest=%s: %v", s.cfg.Dest, err))
		log.Printf("udp open failed dest=%s: %v", s.cfg.Dest, err)
		return false
	}
	s.conn = conn
	s.setError("")
	return true
}

func (s *Service) send(now time.Time, frame []byte) {
	if s.conn == nil {
		return
	}
	if err := s.conn.Send(frame); err != nil {
		// Broadcast is fire-and-forget; a send error means the socket itself
		// is unhealthy. Drop it and recreate on a later tick.
		s.setError(fmt.Sprintf("udp send failed: %v", err))
		log.Printf("udp send failed dest=%s: %v", s.cfg.Dest, err)
		_ = s.conn.Close()
		s.conn = nil
		return
	}

	s.mu.Lock()
	s.snap.FramesSent++
	s.mu.Unlock()

	if s.rec != nil {
		if err := s.rec.WriteFrame(now, frame); err != nil {
			log.Printf("frame log write failed: %v", err)
			_ = s.rec.Close()
			s.rec = nil
		}
	}
}

// gpsValid resolves ownship GPS validity: the override wins, otherwise the
// merged proximity-feed flag, defaulting to invalid.
func (s *Service) gpsValid() bool {
	if s.cfg.Override != nil {
		return s.cfg.Override.GPSValid
	}
	own := s.store.Ownship()
	return own.GPSValid != nil && *own.GPSValid
}

// ownshipReport builds the ownship report when ownship is ready to emit:
// position and pressure altitude present (the override is always ready).
// GPS validity gates only the integrity fields.
func (s *Service) ownshipReport(gpsValid bool) (gdl90.Report, bool) {
	r := gdl90.Report{
		ICAO:     s.cfg.OwnshipICAO,
		Emitter:  emitterLight,
		Callsign: s.cfg.OwnshipCallsign,
		Airborne: true,
	}

	if ov := s.cfg.Override; ov != nil {
		r.LatDeg, r.LonDeg, r.PosValid = ov.LatDeg, ov.LonDeg, true
		r.AltPressFeet, r.AltValid = ov.AltPressFt, true
		r.GroundKt, r.SpeedValid = ov.GroundKt, true
		r.VvelFpm, r.VvelValid = ov.VvelFpm, true
		r.TrackDeg, r.TrackValid = ov.TrackDeg, true
		r.NIC, r.NACp = s.integrity(gpsValid, nil)
		return r, true
	}

	own := s.store.Ownship()
	if !own.ReadyForReport() {
		return gdl90.Report{}, false
	}
	r.LatDeg, r.LonDeg, r.PosValid = *own.LatDeg, *own.LonDeg, true
	r.AltPressFeet, r.AltValid = *own.AltPressFeet, true
	if own.GroundKt != nil {
		r.GroundKt, r.SpeedValid = *own.GroundKt, true
	}
	if own.VvelFpm != nil {
		r.VvelFpm, r.VvelValid = *own.VvelFpm, true
	}
	if own.TrackDeg != nil {
		r.TrackDeg, r.TrackValid = *own.TrackDeg, true
	}
	if own.Airborne != nil {
		r.Airborne = *own.Airborne
	}
	r.NIC, r.NACp = s.integrity(gpsValid, own.HorizAccuracyM)
	return r, true
}

// integrity maps GPS validity to the ownship NIC/NACp pair: 8/8 on a valid
// fix (NACp refined from horizontal accuracy when known), 0/0 otherwise.
func (s *Service) integrity(gpsValid bool, horizAccM *float64) (byte, byte) {
	if !gpsValid {
		return 0, 0
	}
	nacp := byte(8)
	if horizAccM != nil {
		nacp = gdl90.NACpFromHorizontalAccuracyMeters(*horizAccM)
	}
	return 8, nacp
}

// geoAltitude returns the geometric altitude message when one can be
// populated.
func (s *Service) geoAltitude() (gdl90.GeoAltitude, bool) {
	if ov := s.cfg.Override; ov != nil {
		return gdl90.GeoAltitude{AltFeet: ov.AltGeoFt, AltValid: true, VPL: gdl90.VPLUnknown}, true
	}
	own := s.store.Ownship()
	if own.AltGeoFeet == nil {
		return gdl90.GeoAltitude{}, false
	}
	return gdl90.GeoAltitude{AltFeet: *own.AltGeoFeet, AltValid: true, VPL: gdl90.VPLUnknown}, true
}

func trafficReport(e *state.Entity) gdl90.Report {
	r := gdl90.Report{
		ICAO:     gdl90.ICAOFromUint(e.Address),
		Emitter:  emitterLight,
		NIC:      8,
		NACp:     8,
		Airborne: true,
	}

	// ReadyForReport guarantees position and pressure altitude.
	r.LatDeg, r.LonDeg, r.PosValid = *e.LatDeg, *e.LonDeg, true
	r.AltPressFeet, r.AltValid = *e.AltPressFeet, true

	if e.GroundKt != nil {
		r.GroundKt, r.SpeedValid = *e.GroundKt, true
	}
	if e.VvelFpm != nil {
		r.VvelFpm, r.VvelValid = *e.VvelFpm, true
	}
	if e.TrackDeg != nil {
		r.TrackDeg, r.TrackValid = *e.TrackDeg, true
	}
	if e.NIC != nil {
		r.NIC = *e.NIC
	}
	if e.NACp != nil {
		r.NACp = *e.NACp
	}
	if e.Emitter != nil {
		r.Emitter = *e.Emitter
	}
	if e.Airborne != nil {
		r.Airborne = *e.Airborne
	}
	if e.Callsign != nil {
		r.Callsign = *e.Callsign
	}
	return r
}

func (s *Service) publish(gpsValid bool) {
	s.mu.Lock()
	s.snap.SocketOpen = s.conn != nil
	s.snap.TrafficCount = s.store.TrafficCount()
	s.snap.GPSValid = gpsValid
	s.mu.Unlock()
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	s.snap.LastError = msg
	s.mu.Unlock()
}
