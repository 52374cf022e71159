package adsb

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"gdl90-bridge/internal/gdl90"
	"gdl90-bridge/internal/state"
)

// decodedMessage is one NDJSON line from the decoded Mode-S feed. The
// decoder emits one JSON object per downlink message; most fields are only
// present when the message carried them.
type decodedMessage struct {
	ICAO     string   `json:"icao"`
	Callsign *string  `json:"callsign"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	AltBaro  *int     `json:"alt_baro"`
	AltGeom  *int     `json:"alt_geom"`
	GS       *float64 `json:"gs"`
	Track    *float64 `json:"track"`
	BaroRate *int     `json:"baro_rate"`
	GeomRate *int     `json:"geom_rate"`
	NIC      *int     `json:"nic"`
	NACp     *int     `json:"nac_p"`
	Category *int     `json:"category"`

	// AirGround is "airborne" or "ground" when the decoder could tell.
	AirGround *string `json:"airground"`
}

// ParseDecodedLine maps one feed line to a partial track update. The parser
// is intentionally tolerant: unknown fields are ignored and any failure
// returns nil so the stream stays healthy.
func ParseDecodedLine(now time.Time, raw []byte) *state.TrackUpdate {
	var msg decodedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}

	icao, err := gdl90.ParseICAOHex(strings.TrimSpace(msg.ICAO))
	if err != nil {
		return nil
	}

	u := state.TrackUpdate{
		Source:     state.SourceLive,
		Address:    state.Address(gdl90.ICAOToUint(icao)),
		ObservedAt: now,
	}

	if msg.Callsign != nil {
		if cs := strings.TrimSpace(*msg.Callsign); cs != "" {
			u.Callsign = state.String(cs)
		}
	}

	// Position only when both halves arrived together.
	if msg.Lat != nil && msg.Lon != nil {
		u.LatDeg = state.Float(*msg.Lat)
		u.LonDeg = state.Float(*msg.Lon)
	}

	if msg.AltBaro != nil {
		u.AltPressFeet = state.Int(*msg.AltBaro)
	}
	if msg.AltGeom != nil {
		u.AltGeoFeet = state.Int(*msg.AltGeom)
	}
	if msg.GS != nil && *msg.GS >= 0 {
		u.GroundKt = state.Int(int(math.Round(*msg.GS)))
	}
	if msg.Track != nil {
		u.TrackDeg = state.Float(*msg.Track)
	}
	if msg.BaroRate != nil {
		u.VvelFpm = state.Int(*msg.BaroRate)
	} else if msg.GeomRate != nil {
		u.VvelFpm = state.Int(*msg.GeomRate)
	}
	if msg.NIC != nil {
		u.NIC = state.Byte(clampNibble(*msg.NIC))
	}
	if msg.NACp != nil {
		u.NACp = state.Byte(clampNibble(*msg.NACp))
	}
	if msg.Category != nil && *msg.Category >= 0 && *msg.Category <= 0xFF {
		u.Emitter = state.Byte(byte(*msg.Category))
	}
	if msg.AirGround != nil {
		switch strings.TrimSpace(*msg.AirGround) {
		case "ground":
			u.Airborne = state.Bool(false)
		case "airborne":
			u.Airborne = state.Bool(true)
		}
	}

	// Even a payload-free sighting refreshes the target's last-seen time.
	return &u
}

func clampNibble(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 15 {
		return 15
	}
	return byte(v)
}
