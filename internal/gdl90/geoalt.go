package gdl90

// VPLUnknown is the vertical protection limit code for unknown or >185 m.
const VPLUnknown = 0xFFFF

// GeoAltitude is the Ownship Geometric Altitude message (0x0B).
type GeoAltitude struct {
	AltFeet  int
	AltValid bool
	// VPL is the vertical protection limit code; VPLUnknown when no vertical
	// containment figure is available.
	VPL uint16
}

// Encode returns the unframed 5-byte geometric altitude message.
func (g GeoAltitude) Encode() []byte {
	msg := make([]byte, 5)
	msg[0] = MsgIDGeoAltitude

	alt := encodeAltGeo16(g.AltFeet, g.AltValid)
	msg[1] = byte(alt >> 8)
	msg[2] = byte(alt)

	msg[3] = byte(g.VPL >> 8)
	msg[4] = byte(g.VPL)
	return msg
}

// FrameBytes returns the complete framed message.
func (g GeoAltitude) FrameBytes() []byte { return Frame(g.Encode()) }

// DecodeGeoAltitude parses an unframed geometric altitude message.
func DecodeGeoAltitude(msg []byte) (GeoAltitude, error) {
	if len(msg) < 5 {
		return GeoAltitude{}, errShortMessage
	}
	if msg[0] != MsgIDGeoAltitude {
		return GeoAltitude{}, errWrongMessageID
	}
	var g GeoAltitude
	g.AltFeet, g.AltValid = decodeAltGeo16(uint16(msg[1])<<8 | uint16(msg[2]))
	g.VPL = uint16(msg[3])<<8 | uint16(msg[4])
	return g, nil
}
