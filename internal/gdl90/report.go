package gdl90

// Report carries the fields of the 28-byte position report layout shared by
// Ownship Report (0x0A) and Traffic Report (0x14).
//
// Validity flags model fields that may be unknown; invalid fields encode as
// their wire sentinels. Earlier revisions of this system's ancestor shipped
// a truncated 16-byte ownship-only layout; that variant is non-compliant
// and deliberately not supported here.
type Report struct {
	Alert    bool
	AddrType byte // low nibble of the status byte; 0 = ADS-B with ICAO address
	ICAO     [3]byte

	LatDeg   float64
	LonDeg   float64
	PosValid bool

	AltPressFeet int
	AltValid     bool

	NIC  byte // 0-15
	NACp byte // 0-15

	GroundKt     int
	SpeedValid   bool
	VvelFpm      int
	VvelValid    bool
	TrackDeg     float64
	TrackValid   bool
	Airborne     bool
	Extrapolated bool

	Emitter  byte
	Callsign string
	Priority byte // emergency/priority code, high nibble of the last byte
}

// OwnshipReportFrame builds and frames an Ownship Report (0x0A). The status
// byte is always zero for ownship.
func OwnshipReportFrame(r Report) []byte {
	r.Alert = false
	r.AddrType = 0
	return Frame(r.encode(MsgIDOwnship))
}

// TrafficReportFrame builds and frames a Traffic Report (0x14).
func TrafficReportFrame(r Report) []byte {
	return Frame(r.encode(MsgIDTraffic))
}

func (r Report) encode(id byte) []byte {
	msg := make([]byte, 28)
	msg[0] = id

	st := r.AddrType & 0x0F
	if r.Alert {
		st |= 0x10
	}
	msg[1] = st

	msg[2], msg[3], msg[4] = r.ICAO[0], r.ICAO[1], r.ICAO[2]

	nic := r.NIC & 0x0F
	nacp := r.NACp & 0x0F
	if r.PosValid {
		lat := encodeLatLon24(r.LatDeg, 90)
		msg[5], msg[6], msg[7] = lat[0], lat[1], lat[2]
		lon := encodeLatLon24(r.LonDeg, 180)
		msg[8], msg[9], msg[10] = lon[0], lon[1], lon[2]
	} else {
		// Zeroed position must be flagged unusable: force NIC and NACp to 0
		// so receivers treat the position as unknown.
		nic, nacp = 0, 0
	}

	alt := encodeAltPress12(r.AltPressFeet, r.AltValid)
	msg[11] = byte(alt >> 4)
	msg[12] = byte(alt&0x0F) << 4

	// Misc nibble: bit0 true-track valid, bit2 extrapolated, bit3 airborne.
	if r.TrackValid {
		msg[12] |= 0x01
	}
	if r.Extrapolated {
		msg[12] |= 0x04
	}
	if r.Airborne {
		msg[12] |= 0x08
	}

	msg[13] = nic<<4 | nacp

	spd := encodeSpeed12(r.GroundKt, r.SpeedValid)
	msg[14] = byte(spd >> 4)
	msg[15] = byte(spd&0x0F) << 4

	vv := encodeVvel12(r.VvelFpm, r.VvelValid)
	msg[15] |= byte(vv >> 8)
	msg[16] = byte(vv & 0xFF)

	msg[17] = encodeTrack8(trackOrZero(r))
	msg[18] = r.Emitter

	cs := sanitizeCallsign(r.Callsign)
	copy(msg[19:27], cs[:])

	msg[27] = (r.Priority & 0x0F) << 4
	return msg
}

func trackOrZero(r Report) float64 {
	if !r.TrackValid {
		return 0
	}
	return r.TrackDeg
}

// DecodeReport parses an unframed Ownship (0x0A) or Traffic (0x14) report.
//
// Sentinel field values decode as invalid, never as an error. A zeroed
// position with NIC=0 decodes as PosValid=false.
func DecodeReport(msg []byte) (Report, error) {
	if len(msg) < 28 {
		return Report{}, errShortMessage
	}
	if msg[0] != MsgIDOwnship && msg[0] != MsgIDTraffic {
		return Report{}, errWrongMessageID
	}

	var r Report
	r.Alert = msg[1]&0x10 != 0
	r.AddrType = msg[1] & 0x0F
	r.ICAO = [3]byte{msg[2], msg[3], msg[4]}

	r.LatDeg = decodeLatLon24([3]byte{msg[5], msg[6], msg[7]})
	r.LonDeg = decodeLatLon24([3]byte{msg[8], msg[9], msg[10]})
	r.NIC = msg[13] >> 4
	r.NACp = msg[13] & 0x0F
	r.PosValid = !(r.LatDeg == 0 && r.LonDeg == 0 && r.NIC == 0)

	r.AltPressFeet, r.AltValid = decodeAltPress12(uint16(msg[11])<<4 | uint16(msg[12])>>4)

	r.TrackValid = msg[12]&0x01 != 0
	r.Extrapolated = msg[12]&0x04 != 0
	r.Airborne = msg[12]&0x08 != 0

	r.GroundKt, r.SpeedValid = decodeSpeed12(uint16(msg[14])<<4 | uint16(msg[15])>>4)
	r.VvelFpm, r.VvelValid = decodeVvel12(uint16(msg[15]&0x0F)<<8 | uint16(msg[16]))

	if r.TrackValid {
		r.TrackDeg = decodeTrack8(msg[17])
	}
	r.Emitter = msg[18]
	r.Callsign = decodeCallsign(msg[19:27])
	r.Priority = msg[27] >> 4
	return r, nil
}
