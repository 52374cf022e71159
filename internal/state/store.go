package state

import "time"

// Entity is the merged kinematic state of ownship or one traffic target.
//
// Optional fields stay nil until some update carries them; a merge never
// clears a field it does not mention.
type Entity struct {
	Address  uint32 // 0 for ownship
	Source   Source
	LastSeen time.Time

	Callsign       *string
	LatDeg         *float64
	LonDeg         *float64
	AltPressFeet   *int
	AltGeoFeet     *int
	GroundKt       *int
	VvelFpm        *int
	TrackDeg       *float64
	NIC            *byte
	NACp           *byte
	Emitter        *byte
	Airborne       *bool
	GPSValid       *bool
	HorizAccuracyM *float64

	// lastEmit throttles per-address traffic report emission.
	lastEmit time.Time
}

// HasPosition reports whether both coordinates are known.
func (e *Entity) HasPosition() bool {
	return e != nil && e.LatDeg != nil && e.LonDeg != nil
}

// ReadyForReport reports whether the entity can populate a position report:
// latitude, longitude, and pressure altitude all present. For ownship the
// GPS-validity flag gates integrity fields, not emission.
func (e *Entity) ReadyForReport() bool {
	return e.HasPosition() && e.AltPressFeet != nil
}

// Store owns the fused picture. It is not safe for concurrent use: the
// emission scheduler goroutine is its sole owner, so no locking is needed.
type Store struct {
	ownship Entity
	traffic map[uint32]*Entity
}

func NewStore() *Store {
	return &Store{traffic: make(map[uint32]*Entity)}
}

// Merge applies one partial update, creating the target entity on first
// reference. Present fields overwrite; absent fields are left alone.
func (s *Store) Merge(u TrackUpdate) *Entity {
	var e *Entity
	if u.Ownship() {
		e = &s.ownship
	} else {
		addr := *u.Address
		e = s.traffic[addr]
		if e == nil {
			e = &Entity{Address: addr}
			s.traffic[addr] = e
		}
	}

	e.Source = u.Source
	if u.ObservedAt.After(e.LastSeen) {
		e.LastSeen = u.ObservedAt
	}

	if u.Callsign != nil {
		e.Callsign = u.Callsign
	}
	if u.LatDeg != nil {
		e.LatDeg = u.LatDeg
	}
	if u.LonDeg != nil {
		e.LonDeg = u.LonDeg
	}
	if u.AltPressFeet != nil {
		e.AltPressFeet = u.AltPressFeet
	}
	if u.AltGeoFeet != nil {
		e.AltGeoFeet = u.AltGeoFeet
	}
	if u.GroundKt != nil {
		e.GroundKt = u.GroundKt
	}
	if u.VvelFpm != nil {
		e.VvelFpm = u.VvelFpm
	}
	if u.TrackDeg != nil {
		e.TrackDeg = u.TrackDeg
	}
	if u.NIC != nil {
		e.NIC = u.NIC
	}
	if u.NACp != nil {
		e.NACp = u.NACp
	}
	if u.Emitter != nil {
		e.Emitter = u.Emitter
	}
	if u.Airborne != nil {
		e.Airborne = u.Airborne
	}
	if u.GPSValid != nil {
		e.GPSValid = u.GPSValid
	}
	if u.HorizAccuracyM != nil {
		e.HorizAccuracyM = u.HorizAccuracyM
	}
	return e
}

// Ownship returns the ownship singleton. Never nil.
func (s *Store) Ownship() *Entity { return &s.ownship }

// Traffic returns the tracked entity for addr, or nil.
func (s *Store) Traffic(addr uint32) *Entity { return s.traffic[addr] }

// TrafficCount returns the number of tracked targets.
func (s *Store) TrafficCount() int { return len(s.traffic) }

// EachTraffic calls fn for every tracked target. Iteration order follows
// map order; fn must not add or remove entries.
func (s *Store) EachTraffic(fn func(*Entity)) {
	for _, e := range s.traffic {
		fn(e)
	}
}

// Sweep removes traffic entries whose LastSeen is older than maxAge.
// Ownship is never removed. Returns the removed addresses.
func (s *Store) Sweep(now time.Time, maxAge time.Duration) []uint32 {
	if maxAge <= 0 {
		return nil
	}
	cutoff := now.Add(-maxAge)
	var removed []uint32
	for addr, e := range s.traffic {
		if e.LastSeen.Before(cutoff) {
			delete(s.traffic, addr)
			removed = append(removed, addr)
		}
	}
	return removed
}

// ShouldEmit reports whether a ready traffic entity may emit a report now:
// it must have been observed since its previous emission and be past the
// per-address minimum re-emission interval. Records the emission time when
// it may.
func (e *Entity) ShouldEmit(now time.Time, minInterval time.Duration) bool {
	if e == nil {
		return false
	}
	if !e.lastEmit.IsZero() {
		if now.Sub(e.lastEmit) < minInterval {
			return false
		}
		if !e.LastSeen.After(e.lastEmit) {
			return false
		}
	}
	e.lastEmit = now
	return true
}
