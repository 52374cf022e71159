package gdl90

import (
	"bytes"
	"testing"
	"time"
)

func TestGolden_Heartbeat(t *testing.T) {
	nowUTC := time.Date(2024, time.March, 1, 1, 2, 3, 0, time.UTC) // 01:02:03 => 37230 tenths
	msg := unframeAndCheckCRC(t, HeartbeatFrameAt(nowUTC, true))

	want := []byte{0x00, 0x20, 0x40, 0x6E, 0x91, 0x00, 0x00}
	if !bytes.Equal(msg, want) {
		t.Fatalf("heartbeat mismatch:\n got % X\nwant % X", msg, want)
	}
}

func TestGolden_Heartbeat_TimestampBit16(t *testing.T) {
	nowUTC := time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC) // 72000 tenths = 0x11940
	msg := unframeAndCheckCRC(t, HeartbeatFrameAt(nowUTC, false))

	want := []byte{0x00, 0x20, 0x80, 0x40, 0x19, 0x00, 0x00}
	if !bytes.Equal(msg, want) {
		t.Fatalf("heartbeat mismatch:\n got % X\nwant % X", msg, want)
	}
}

func TestHeartbeat_RoundTrip(t *testing.T) {
	in := Heartbeat{GPSValid: true, IdentActive: true, Tenths: 0x11940}
	out, err := DecodeHeartbeat(in.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip: got %+v want %+v", out, in)
	}
}

func TestGolden_OwnshipReport(t *testing.T) {
	msg := unframeAndCheckCRC(t, OwnshipReportFrame(Report{
		ICAO:       [3]byte{0x01, 0x02, 0x03},
		LatDeg:     45.0,
		LonDeg:     -90.0,
		PosValid:   true,
		AltValid:   true, // 0 ft
		NIC:        8,
		NACp:       8,
		GroundKt:   100,
		SpeedValid: true,
		TrackDeg:   90,
		TrackValid: true,
		Airborne:   true,
		Emitter:    0x01,
		Callsign:   "N12345",
	}))

	want := []byte{
		0x0A,
		0x00,
		0x01, 0x02, 0x03,
		0x20, 0x00, 0x00, // lat 45 deg
		0xC0, 0x00, 0x00, // lon -90 deg
		0x02, 0x89, // alt 0 ft => 0x028, misc = track-valid | airborne
		0x88,             // NIC/NACp
		0x06, 0x48, 0x00, // gs=100 (0x064), vvel unknown (0x800)
		0x40, // track 90 deg
		0x01, // emitter
		'N', '1', '2', '3', '4', '5', ' ', ' ',
		0x00,
	}
	if !bytes.Equal(msg, want) {
		t.Fatalf("ownship mismatch:\n got % X\nwant % X", msg, want)
	}
}

func TestGolden_TrafficReport(t *testing.T) {
	msg := unframeAndCheckCRC(t, TrafficReportFrame(Report{
		ICAO:         [3]byte{0xAA, 0xBB, 0xCC},
		LatDeg:       34.125,
		LonDeg:       -118.540,
		PosValid:     true,
		AltPressFeet: 11000,
		AltValid:     true,
		NIC:          8,
		NACp:         8,
		GroundKt:     150,
		SpeedValid:   true,
		VvelFpm:      -200,
		VvelValid:    true,
		TrackDeg:     270,
		TrackValid:   true,
		Airborne:     true,
		Emitter:      0x01,
		Callsign:     "N12345",
	}))

	want := []byte{
		0x14,
		0x00,
		0xAA, 0xBB, 0xCC,
		0x18, 0x44, 0x44, // lat 34.125
		0xAB, 0xB4, 0x74, // lon -118.540
		0x1E, 0x09, // alt 11000 ft => 0x1E0, misc = track-valid | airborne
		0x88,
		0x09, 0x6F, 0xFD, // gs=150 (0x096), vvel=-200 fpm => 0xFFD
		0xC0, // track 270 deg
		0x01,
		'N', '1', '2', '3', '4', '5', ' ', ' ',
		0x00,
	}
	if !bytes.Equal(msg, want) {
		t.Fatalf("traffic mismatch:\n got % X\nwant % X", msg, want)
	}
}

func TestReport_InvalidPositionForcesIntegrityZero(t *testing.T) {
	msg := unframeAndCheckCRC(t, TrafficReportFrame(Report{
		ICAO: [3]byte{0x0A, 0x0B, 0x0C},
		NIC:  8,
		NACp: 9,
	}))
	for i := 5; i <= 10; i++ {
		if msg[i] != 0 {
			t.Fatalf("position bytes not zeroed: % X", msg[5:11])
		}
	}
	if msg[13] != 0x00 {
		t.Fatalf("integrity byte not forced to zero: 0x%02X", msg[13])
	}
}

func TestReport_RoundTrip(t *testing.T) {
	in := Report{
		AddrType:     0x01,
		ICAO:         [3]byte{0xC0, 0xFF, 0xEE},
		LatDeg:       45.0,
		LonDeg:       -90.0,
		PosValid:     true,
		AltPressFeet: 11000,
		AltValid:     true,
		NIC:          9,
		NACp:         10,
		GroundKt:     310,
		SpeedValid:   true,
		VvelFpm:      -192, // exact multiple of 64
		VvelValid:    true,
		TrackDeg:     90,
		TrackValid:   true,
		Airborne:     true,
		Emitter:      0x09,
		Callsign:     "QFA123",
		Priority:     0x01,
	}
	out, err := DecodeReport(in.encode(MsgIDTraffic))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestReport_SentinelsDecodeAsInvalid(t *testing.T) {
	out, err := DecodeReport(Report{ICAO: [3]byte{1, 2, 3}}.encode(MsgIDOwnship))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.PosValid || out.AltValid || out.SpeedValid || out.VvelValid || out.TrackValid {
		t.Fatalf("sentinel fields decoded as valid: %+v", out)
	}
}

func TestGolden_GeoAltitude(t *testing.T) {
	msg := unframeAndCheckCRC(t, GeoAltitude{AltFeet: 1500, AltValid: true, VPL: VPLUnknown}.FrameBytes())
	want := []byte{0x0B, 0x01, 0xF4, 0xFF, 0xFF}
	if !bytes.Equal(msg, want) {
		t.Fatalf("geo altitude mismatch:\n got % X\nwant % X", msg, want)
	}

	out, err := DecodeGeoAltitude(msg)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.AltValid || out.AltFeet != 1500 || out.VPL != VPLUnknown {
		t.Fatalf("roundtrip: %+v", out)
	}
}

func TestGeoAltitude_InvalidSentinel(t *testing.T) {
	out, err := DecodeGeoAltitude(GeoAltitude{VPL: VPLUnknown}.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.AltValid {
		t.Fatalf("absent altitude decoded as valid")
	}
}
