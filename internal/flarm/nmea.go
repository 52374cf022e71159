// Package flarm reads the serial NMEA-style proximity feed and interprets
// its GPS sentences into ownship track updates.
//
// Only ownship-bearing tags are interpreted: GGA (position, geometric
// altitude, fix quality, HDOP), RMC (ground speed and track when the fix is
// active), and PGRMZ (pressure altitude). Everything else is ignored.
package flarm

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gdl90-bridge/internal/state"
)

const metersToFeet = 3.28084

// hdopUEREMeters scales HDOP to an estimated 95% horizontal accuracy,
// assuming a ~5 m user-equivalent range error.
const hdopUEREMeters = 5.0

type sentence struct {
	// Tag is the sentence type without the talker prefix ("GGA", "RMC"),
	// except proprietary tags which keep their full name ("PGRMZ").
	Tag    string
	Fields []string
}

// parseSentence tokenizes one NMEA-style line. A trailing *hh checksum is
// validated when present; FLARM devices emit one on every sentence but some
// GPS sources omit it.
func parseSentence(line string) (sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return sentence{}, fmt.Errorf("nmea: missing '$'")
	}
	payload := line[1:]
	if star := strings.LastIndexByte(payload, '*'); star != -1 {
		ck := strings.TrimSpace(payload[star+1:])
		payload = payload[:star]
		if len(ck) < 2 {
			return sentence{}, fmt.Errorf("nmea: short checksum")
		}
		want, err := hex.DecodeString(ck[:2])
		if err != nil || len(want) != 1 {
			return sentence{}, fmt.Errorf("nmea: bad checksum")
		}
		var got byte
		for i := 0; i < len(payload); i++ {
			got ^= payload[i]
		}
		if got != want[0] {
			return sentence{}, fmt.Errorf("nmea: checksum mismatch")
		}
	}

	parts := strings.Split(payload, ",")
	tag := strings.ToUpper(parts[0])
	if len(tag) < 3 {
		return sentence{}, fmt.Errorf("nmea: short type")
	}
	if tag[0] != 'P' && len(tag) > 3 {
		// GPxxx/GNxxx etc: drop the talker prefix.
		tag = tag[len(tag)-3:]
	}
	return sentence{Tag: tag, Fields: parts[1:]}, nil
}

// interpret maps one sentence to an ownship TrackUpdate, or ok=false when
// the tag carries nothing this system uses.
func interpret(now time.Time, sent sentence) (state.TrackUpdate, bool) {
	u := state.TrackUpdate{Source: state.SourceProximity, ObservedAt: now}
	switch sent.Tag {
	case "GGA":
		return interpretGGA(u, sent.Fields)
	case "RMC":
		return interpretRMC(u, sent.Fields)
	case "PGRMZ":
		return interpretPGRMZ(u, sent.Fields)
	default:
		return state.TrackUpdate{}, false
	}
}

// GGA: time, lat, N/S, lon, E/W, fix quality, sats, HDOP, altitude MSL, unit.
func interpretGGA(u state.TrackUpdate, f []string) (state.TrackUpdate, bool) {
	if len(f) < 10 {
		return state.TrackUpdate{}, false
	}

	any := false
	if lat, ok := parseCoord(f[1], f[2], "S"); ok {
		if lon, ok := parseCoord(f[3], f[4], "W"); ok {
			u.LatDeg = state.Float(lat)
			u.LonDeg = state.Float(lon)
			any = true
		}
	}
	if q, err := strconv.Atoi(strings.TrimSpace(f[5])); err == nil {
		u.GPSValid = state.Bool(q > 0)
		any = true
	}
	if hdop, err := strconv.ParseFloat(strings.TrimSpace(f[7]), 64); err == nil && hdop > 0 {
		u.HorizAccuracyM = state.Float(hdop * hdopUEREMeters)
		any = true
	}
	if altM, err := strconv.ParseFloat(strings.TrimSpace(f[8]), 64); err == nil && f[8] != "" {
		u.AltGeoFeet = state.Int(int(altM*metersToFeet + 0.5))
		any = true
	}
	return u, any
}

// RMC: time, status, lat, N/S, lon, E/W, speed kt, track deg, ...
func interpretRMC(u state.TrackUpdate, f []string) (state.TrackUpdate, bool) {
	if len(f) < 8 {
		return state.TrackUpdate{}, false
	}
	if strings.TrimSpace(f[1]) != "A" {
		// Void fix: leave previously merged values alone.
		return state.TrackUpdate{}, false
	}

	any := false
	if kt, err := strconv.ParseFloat(strings.TrimSpace(f[6]), 64); err == nil && f[6] != "" {
		u.GroundKt = state.Int(int(kt + 0.5))
		any = true
	}
	if trk, err := strconv.ParseFloat(strings.TrimSpace(f[7]), 64); err == nil && f[7] != "" {
		u.TrackDeg = state.Float(trk)
		any = true
	}
	return u, any
}

// PGRMZ: altitude, unit (F feet / M meters), fix dimension.
func interpretPGRMZ(u state.TrackUpdate, f []string) (state.TrackUpdate, bool) {
	if len(f) < 2 {
		return state.TrackUpdate{}, false
	}
	alt, err := strconv.ParseFloat(strings.TrimSpace(f[0]), 64)
	if err != nil {
		return state.TrackUpdate{}, false
	}
	switch strings.ToUpper(strings.TrimSpace(f[1])) {
	case "F":
		u.AltPressFeet = state.Int(int(alt + 0.5))
	case "M":
		u.AltPressFeet = state.Int(int(alt*metersToFeet + 0.5))
	default:
		return state.TrackUpdate{}, false
	}
	return u, true
}

// parseCoord converts NMEA DDMM.mmmm plus hemisphere into decimal degrees.
func parseCoord(raw, hemi, negHemi string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	deg := float64(int(v / 100))
	min := v - deg*100
	out := deg + min/60.0
	if strings.EqualFold(strings.TrimSpace(hemi), negHemi) {
		out = -out
	}
	return out, true
}
