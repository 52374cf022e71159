package gdl90

// maxFlaglessBuffer bounds how much flagless garbage a Deframe caller may
// accumulate before the buffer is discarded wholesale.
const maxFlaglessBuffer = 64 * 1024

// Deframe scans buf for one complete flag-delimited frame.
//
// On success it returns the unframed, CRC-checked message and the number of
// bytes consumed up to and including the terminating flag. On a malformed
// frame (CRC mismatch, short interior, truncated escape) it returns a nil
// message but still reports the consumed bytes so the caller resynchronizes
// at the next flag. When no terminating flag is present yet it consumes
// nothing, unless the buffer has grown past a hard cap without any flag at
// all, in which case the whole buffer is consumed to bound memory.
func Deframe(buf []byte) (msg []byte, consumed int) {
	start := indexByte(buf, flagByte)
	if start < 0 {
		if len(buf) > maxFlaglessBuffer {
			return nil, len(buf)
		}
		return nil, 0
	}

	// Adjacent flags act as one frame boundary; skip empty interiors.
	inner := start + 1
	for inner < len(buf) && buf[inner] == flagByte {
		inner++
	}
	end := indexByte(buf[inner:], flagByte)
	if end < 0 {
		// Incomplete frame. Drop garbage and redundant flags, keeping one
		// opening flag in place for when the rest of the frame arrives.
		return nil, inner - 1
	}
	end += inner

	raw, err := unstuff(buf[inner:end])
	// Consume through the interior but leave the closing flag in place; it
	// doubles as the opening flag of the next frame.
	consumed = end
	if err != nil || len(raw) < 3 {
		return nil, consumed
	}

	m := raw[:len(raw)-2]
	crcGot := uint16(raw[len(raw)-2]) | (uint16(raw[len(raw)-1]) << 8)
	if crcGot != crc16(m) {
		return nil, consumed
	}
	return m, consumed
}

func indexByte(b []byte, c byte) int {
	for i := range b {
		if b[i] == c {
			return i
		}
	}
	return -1
}
