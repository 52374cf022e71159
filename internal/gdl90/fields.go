package gdl90

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

const (
	latLonResolution = 180.0 / 8388608.0 // degrees per LSB for signed 24-bit
	trackResolution  = 360.0 / 256.0
)

// Invalid sentinels for the fixed-width fields.
const (
	altPressInvalid = 0x0FFF
	altGeoInvalid   = 0xFFFF
	speedInvalid    = 0x0FFF
	vvelInvalid     = 0x0800
)

// encodeLatLon24 encodes degrees as a signed 24-bit semicircle value,
// big-endian, rounding to the nearest LSB. Input is clamped to ±limitDeg
// (90 for latitude, 180 for longitude).
func encodeLatLon24(deg, limitDeg float64) [3]byte {
	if deg > limitDeg {
		deg = limitDeg
	}
	if deg < -limitDeg {
		deg = -limitDeg
	}
	v := int32(math.Round(deg / latLonResolution))
	u := uint32(v) & 0x00FFFFFF
	return [3]byte{byte(u >> 16), byte(u >> 8), byte(u)}
}

func decodeLatLon24(b [3]byte) float64 {
	u := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	if u&0x800000 != 0 {
		return (float64(u) - float64(1<<24)) * latLonResolution
	}
	return float64(u) * latLonResolution
}

// encodeAltPress12 encodes pressure altitude in 25 ft units offset by
// +1000 ft, clamped to [0, 0xFFE]. 0xFFF means invalid/unknown.
func encodeAltPress12(feet int, valid bool) uint16 {
	if !valid {
		return altPressInvalid
	}
	v := int(math.Round((float64(feet) + 1000.0) / 25.0))
	if v < 0 {
		v = 0
	}
	if v > 0xFFE {
		v = 0xFFE
	}
	return uint16(v)
}

func decodeAltPress12(v uint16) (feet int, valid bool) {
	v &= 0x0FFF
	if v == altPressInvalid {
		return 0, false
	}
	return int(v)*25 - 1000, true
}

// encodeAltGeo16 encodes geometric altitude in 5 ft units offset by
// +1000 ft, clamped to [0, 0xFFFE]. 0xFFFF means invalid/unknown.
func encodeAltGeo16(feet int, valid bool) uint16 {
	if !valid {
		return altGeoInvalid
	}
	v := int(math.Round((float64(feet) + 1000.0) / 5.0))
	if v < 0 {
		v = 0
	}
	if v > 0xFFFE {
		v = 0xFFFE
	}
	return uint16(v)
}

func decodeAltGeo16(v uint16) (feet int, valid bool) {
	if v == altGeoInvalid {
		return 0, false
	}
	return int(v)*5 - 1000, true
}

// encodeSpeed12 encodes ground speed in 1 kt units, clamped to [0, 4094].
// 0xFFF means invalid/unknown.
func encodeSpeed12(kt int, valid bool) uint16 {
	if !valid || kt < 0 {
		return speedInvalid
	}
	if kt > 4094 {
		kt = 4094
	}
	return uint16(kt)
}

func decodeSpeed12(v uint16) (kt int, valid bool) {
	v &= 0x0FFF
	if v == speedInvalid {
		return 0, false
	}
	return int(v), true
}

// encodeVvel12 encodes vertical rate in 64 fpm units as 12-bit two's
// complement, clamped to ±2047. 0x800 means invalid/unknown.
func encodeVvel12(fpm int, valid bool) uint16 {
	if !valid {
		return vvelInvalid
	}
	v := int32(math.Round(float64(fpm) / 64.0))
	if v > 2047 {
		v = 2047
	}
	if v < -2047 {
		v = -2047
	}
	return uint16(v) & 0x0FFF
}

func decodeVvel12(v uint16) (fpm int, valid bool) {
	v &= 0x0FFF
	if v == vvelInvalid {
		return 0, false
	}
	if v&0x800 != 0 {
		return (int(v) - 4096) * 64, true
	}
	return int(v) * 64, true
}

// encodeTrack8 encodes track/heading in 360/256-degree units. There is no
// invalid code; absent track encodes as 0 and validity rides on the misc
// track-type bits of the enclosing message.
func encodeTrack8(deg float64) byte {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return byte(int(math.Round(deg/trackResolution)) & 0xFF)
}

func decodeTrack8(b byte) float64 {
	return float64(b) * trackResolution
}

// sanitizeCallsign strips non-printable ASCII and pads/truncates to exactly
// 8 bytes. An empty callsign encodes as 8 spaces.
func sanitizeCallsign(s string) [8]byte {
	var out [8]byte
	for i := range out {
		out[i] = ' '
	}
	n := 0
	for i := 0; i < len(s) && n < 8; i++ {
		c := s[i]
		if c < 0x20 || c > 0x7E {
			continue
		}
		out[n] = c
		n++
	}
	return out
}

func decodeCallsign(b []byte) string {
	return strings.TrimRight(string(b), " ")
}

// ParseICAOHex parses a 24-bit ICAO address from a 6-digit hex string.
func ParseICAOHex(s string) ([3]byte, error) {
	var out [3]byte
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(s), "0x"))
	if len(s) != 6 {
		return out, fmt.Errorf("icao must be 6 hex chars")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// ICAOFromUint packs the low 24 bits of addr big-endian.
func ICAOFromUint(addr uint32) [3]byte {
	return [3]byte{byte(addr >> 16), byte(addr >> 8), byte(addr)}
}

// ICAOToUint is the inverse of ICAOFromUint.
func ICAOToUint(icao [3]byte) uint32 {
	return uint32(icao[0])<<16 | uint32(icao[1])<<8 | uint32(icao[2])
}
