package gdl90

import "time"

// Heartbeat is the capability/status message (0x00) clients expect once per
// second.
type Heartbeat struct {
	GPSValid            bool
	MaintenanceRequired bool
	IdentActive         bool

	// Tenths is the UTC time of day in tenths of a second (0..863999).
	Tenths uint32
}

// TenthsSinceMidnightUTC converts a wall-clock time to the heartbeat
// timestamp field.
func TenthsSinceMidnightUTC(t time.Time) uint32 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	tenths := uint32(t.Sub(midnight) / (100 * time.Millisecond))
	if tenths > 863999 {
		tenths = 863999
	}
	return tenths
}

// Encode returns the unframed 7-byte heartbeat message.
func (h Heartbeat) Encode() []byte {
	msg := make([]byte, 7)
	msg[0] = MsgIDHeartbeat

	// Status byte 1: bit5 advertises CDTI (traffic display) capability.
	msg[1] = 0x20

	// Status byte 2: bit6 GPS valid, bit5 maintenance, bit4 IDENT. Bit7
	// carries bit 16 of the timestamp.
	var st2 byte
	if h.GPSValid {
		st2 |= 0x40
	}
	if h.MaintenanceRequired {
		st2 |= 0x20
	}
	if h.IdentActive {
		st2 |= 0x10
	}
	tenths := h.Tenths
	if tenths > 863999 {
		tenths = 863999
	}
	st2 |= byte(((tenths >> 16) & 0x01) << 7)
	msg[2] = st2

	// Lower 16 timestamp bits, little-endian.
	msg[3] = byte(tenths & 0xFF)
	msg[4] = byte((tenths >> 8) & 0xFF)

	// Uplink / basic+long message counts: always zero for this system.
	msg[5] = 0x00
	msg[6] = 0x00
	return msg
}

// FrameBytes returns the complete framed heartbeat.
func (h Heartbeat) FrameBytes() []byte { return Frame(h.Encode()) }

// HeartbeatFrameAt builds and frames a heartbeat for the given wall-clock
// time and GPS validity.
func HeartbeatFrameAt(now time.Time, gpsValid bool) []byte {
	return Heartbeat{GPSValid: gpsValid, Tenths: TenthsSinceMidnightUTC(now)}.FrameBytes()
}

// DecodeHeartbeat parses an unframed heartbeat message.
func DecodeHeartbeat(msg []byte) (Heartbeat, error) {
	if len(msg) < 5 {
		return Heartbeat{}, errShortMessage
	}
	if msg[0] != MsgIDHeartbeat {
		return Heartbeat{}, errWrongMessageID
	}
	st2 := msg[2]
	tenths := uint32(msg[3]) | uint32(msg[4])<<8
	tenths |= uint32(st2>>7) << 16
	return Heartbeat{
		GPSValid:            st2&0x40 != 0,
		MaintenanceRequired: st2&0x20 != 0,
		IdentActive:         st2&0x10 != 0,
		Tenths:              tenths,
	}, nil
}
