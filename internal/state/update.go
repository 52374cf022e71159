// Package state holds the fused kinematic picture the broadcaster emits
// from: one ownship record plus a map of tracked traffic keyed by 24-bit
// ICAO address, merged from partial updates arriving over one channel.
package state

import "time"

// Source identifies which ingestion adapter produced an update.
type Source string

const (
	SourceLive      Source = "live"      // decoded Mode-S feed
	SourceProximity Source = "proximity" // serial NMEA feed
	SourceSynthetic Source = "synthetic" // simulated traffic
)

// TrackUpdate is one partial observation of an entity. A nil Address targets
// ownship. Nil optional fields are absent and never erase previously merged
// values.
type TrackUpdate struct {
	Source     Source
	Address    *uint32
	ObservedAt time.Time

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
}

// Ownship returns true when the update targets the ownship record.
func (u TrackUpdate) Ownship() bool { return u.Address == nil }

// Helpers for building updates from adapters.

func String(v string) *string  { return &v }
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func Byte(v byte) *byte        { return &v }
func Bool(v bool) *bool        { return &v }
func Address(v uint32) *uint32 { return &v }
