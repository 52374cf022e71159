package gdl90

import (
	"bytes"
	"testing"
)

func unframeAndCheckCRC(t *testing.T, frame []byte) []byte {
	t.Helper()
	msg, crcOK, err := Unframe(frame)
	if err != nil {
		t.Fatalf("unframe failed: %v", err)
	}
	if !crcOK {
		t.Fatalf("crc mismatch on frame % X", frame)
	}
	return msg
}

func TestCRC16_SpecVector(t *testing.T) {
	got := crc16([]byte{0x00, 0x7E, 0x14, 0x7D, 0xAB})
	if got != 0x0448 {
		t.Fatalf("crc: got 0x%04X want 0x0448", got)
	}
}

func TestFrame_SpecVector(t *testing.T) {
	got := Frame([]byte{0x00, 0x7E, 0x14, 0x7D, 0xAB})
	want := []byte{0x7E, 0x00, 0x7D, 0x5E, 0x14, 0x7D, 0x5D, 0xAB, 0x48, 0x04, 0x7E}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame mismatch:\n got % X\nwant % X", got, want)
	}
}

func TestFrame_EscapesControlBytes(t *testing.T) {
	got := Frame([]byte{0x00, flagByte, escapeByte})
	for i := 1; i < len(got)-1; i++ {
		if got[i] == flagByte {
			t.Fatalf("unescaped flag byte at %d: % X", i, got)
		}
	}
}

func TestUnframe_RoundTrip(t *testing.T) {
	msg := []byte{0x14, 0x7E, 0x7D, 0x00, 0xFF}
	got := unframeAndCheckCRC(t, Frame(msg))
	if !bytes.Equal(got, msg) {
		t.Fatalf("roundtrip mismatch: got % X want % X", got, msg)
	}
}

func TestUnframe_DetectsCorruption(t *testing.T) {
	frame := Frame([]byte{0x0A, 0x01, 0x02})
	frame[2] ^= 0xFF
	_, crcOK, err := Unframe(frame)
	if err != nil {
		t.Fatalf("corrupted interior should still unframe: %v", err)
	}
	if crcOK {
		t.Fatalf("crc check passed on corrupted frame")
	}
}

func TestUnframe_TruncatedEscape(t *testing.T) {
	if _, _, err := Unframe([]byte{flagByte, 0x00, 0x01, 0x02, escapeByte, flagByte}); err == nil {
		t.Fatalf("expected error for escape at end of frame")
	}
}

func TestDeframe_SkipsGarbageAndResyncs(t *testing.T) {
	good := Frame([]byte{0x00, 0x20, 0x40, 0x6E, 0x91, 0x00, 0x00})
	bad := append([]byte(nil), good...)
	bad[3] ^= 0x55

	stream := append([]byte{0xDE, 0xAD}, bad...)
	stream = append(stream, good[1:]...) // frames share the middle flag

	// Leading garbage and the corrupted frame are consumed without yielding
	// a message; the stream stays positioned at the shared flag.
	msg, n := Deframe(stream)
	if msg != nil {
		t.Fatalf("corrupted frame yielded message % X", msg)
	}
	if n <= 2 {
		t.Fatalf("expected garbage and corrupt interior consumed, got n=%d", n)
	}
	stream = stream[n:]

	// The good frame decodes on the next pass.
	msg, n = Deframe(stream)
	if msg == nil {
		t.Fatalf("expected message after resync (stream % X)", stream)
	}
	if msg[0] != MsgIDHeartbeat {
		t.Fatalf("unexpected message id 0x%02X", msg[0])
	}
	if n == 0 {
		t.Fatalf("good frame consumed nothing")
	}
}

func TestDeframe_WaitsForTerminatingFlag(t *testing.T) {
	partial := Frame([]byte{0x0B, 0x01, 0xF4, 0xFF, 0xFF})
	partial = partial[:len(partial)-2]
	msg, n := Deframe(partial)
	if msg != nil {
		t.Fatalf("incomplete frame yielded message % X", msg)
	}
	if n != 0 {
		t.Fatalf("incomplete frame consumed %d bytes", n)
	}
}

func TestDeframe_DiscardsFlaglessOverflow(t *testing.T) {
	buf := bytes.Repeat([]byte{0x55}, maxFlaglessBuffer+1)
	msg, n := Deframe(buf)
	if msg != nil || n != len(buf) {
		t.Fatalf("overflow: got msg=% X n=%d want n=%d", msg, n, len(buf))
	}
}
