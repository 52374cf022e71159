package udp

import (
	"net"
	"testing"
	"time"
)

func TestBroadcaster_SendsToDestination(t *testing.T) {
	rx, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer rx.Close()

	b, err := NewBroadcaster(rx.LocalAddr().String())
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}
	defer b.Close()

	payload := []byte{0x7E, 0x00, 0x20, 0x40, 0x7E}
	if err := b.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}

	_ = rx.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	n, _, err := rx.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("got %d bytes want %d", n, len(payload))
	}
}

func TestBroadcaster_EmptyPayloadIsNoop(t *testing.T) {
	b, err := NewBroadcaster("127.0.0.1:4000")
	if err != nil {
		t.Fatalf("new broadcaster: %v", err)
	}
	defer b.Close()
	if err := b.Send(nil); err != nil {
		t.Fatalf("empty send: %v", err)
	}
}

func TestBroadcaster_BadDestRejected(t *testing.T) {
	if _, err := NewBroadcaster("not-a-dest"); err == nil {
		t.Fatal("expected error for unresolvable destination")
	}
}
