// Package gdl90 implements the GDL90 wire protocol used to broadcast
// ownship and traffic state to EFB clients: CRC16 integrity, 0x7E flag
// framing with byte stuffing, and the four message layouts this system
// emits (Heartbeat 0x00, Ownship Report 0x0A, Ownship Geometric Altitude
// 0x0B, Traffic Report 0x14).
//
// Builders never fail: out-of-range values are clamped and absent values
// encode as the field's invalid sentinel.
package gdl90

const (
	flagByte   = 0x7E
	escapeByte = 0x7D
	escapeXor  = 0x20
)

// Message IDs.
const (
	MsgIDHeartbeat   = 0x00
	MsgIDOwnship     = 0x0A
	MsgIDGeoAltitude = 0x0B
	MsgIDTraffic     = 0x14
)

// Frame takes an unframed message (message ID + payload bytes), appends the
// CRC16 little-endian, applies byte stuffing, and wraps with 0x7E flags.
func Frame(message []byte) []byte {
	crc := crc16(message)

	withCRC := make([]byte, 0, len(message)+2)
	withCRC = append(withCRC, message...)
	withCRC = append(withCRC, byte(crc&0xFF), byte((crc>>8)&0xFF))

	out := make([]byte, 0, 2+len(withCRC)*2)
	out = append(out, flagByte)
	for _, b := range withCRC {
		if b == flagByte || b == escapeByte {
			out = append(out, escapeByte, b^escapeXor)
			continue
		}
		out = append(out, b)
	}
	out = append(out, flagByte)
	return out
}

// Unframe reverses Frame(): it validates the 0x7E flags, de-escapes the
// interior, and checks the trailing CRC16.
//
// It returns the unframed message (ID + payload, without CRC), whether the
// CRC check passed, and an error for structurally malformed frames.
func Unframe(frame []byte) (msg []byte, crcOK bool, err error) {
	if len(frame) < 4 {
		return nil, false, errFrameTooShort
	}
	if frame[0] != flagByte || frame[len(frame)-1] != flagByte {
		return nil, false, errMissingFlags
	}

	raw, err := unstuff(frame[1 : len(frame)-1])
	if err != nil {
		return nil, false, err
	}
	if len(raw) < 3 {
		return nil, false, errInteriorTooShort
	}

	msg = raw[:len(raw)-2]
	crcGot := uint16(raw[len(raw)-2]) | (uint16(raw[len(raw)-1]) << 8)
	return msg, crcGot == crc16(msg), nil
}

func unstuff(stuffed []byte) ([]byte, error) {
	out := make([]byte, 0, len(stuffed))
	for i := 0; i < len(stuffed); i++ {
		b := stuffed[i]
		if b == escapeByte {
			i++
			if i >= len(stuffed) {
				return nil, errTruncatedEscape
			}
			out = append(out, stuffed[i]^escapeXor)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type frameError string

func (e frameError) Error() string { return string(e) }

const (
	errFrameTooShort    = frameError("gdl90: frame too short")
	errMissingFlags     = frameError("gdl90: missing start/end flags")
	errInteriorTooShort = frameError("gdl90: unescaped interior too short")
	errTruncatedEscape  = frameError("gdl90: truncated escape sequence")
	errShortMessage     = frameError("gdl90: message too short")
	errWrongMessageID   = frameError("gdl90: unexpected message id")
)
