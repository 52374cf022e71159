package adsb

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"gdl90-bridge/internal/state"
)

func TestClient_setState_ClearsStaleErrorOnConnected(t *testing.T) {
	c, err := NewClient(Config{Addr: "127.0.0.1:1"}, func(state.TrackUpdate) {})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	c.setState("error", "dial tcp: connection refused")
	c.setState("connected", "")

	snap := c.Snapshot()
	if snap.State != "connected" {
		t.Fatalf("state=%q want %q", snap.State, "connected")
	}
	if snap.LastError != "" {
		t.Fatalf("last_error=%q want empty", snap.LastError)
	}
}

func TestClient_ReadsFeedLines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte(`{"icao":"AABBCC","alt_baro":11000}` + "\n"))
		_, _ = conn.Write([]byte("garbage line\n"))
		_, _ = conn.Write([]byte(`{"icao":"3C6545","gs":120}` + "\n"))
	}()

	got := make(chan state.TrackUpdate, 4)
	c, err := NewClient(Config{Addr: ln.Addr().String()}, func(u state.TrackUpdate) {
		got <- u
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	want := []uint32{0xAABBCC, 0x3C6545}
	for _, addr := range want {
		select {
		case u := <-got:
			if u.Address == nil || *u.Address != addr {
				t.Fatalf("update address = %v, want %06X", u.Address, addr)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for update %06X", addr)
		}
	}

	snap := c.Snapshot()
	if snap.Lines < 3 {
		t.Fatalf("lines = %d, want >= 3", snap.Lines)
	}
}

func TestClient_OversizedLineSkippedWithinBound(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	hold := make(chan struct{})
	defer close(hold)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// A newline-free run far past the line cap must be discarded
		// without wedging the reader.
		_, _ = conn.Write(bytes.Repeat([]byte("x"), 1024))
		_, _ = conn.Write([]byte("\n"))
		_, _ = conn.Write([]byte(`{"icao":"AABBCC","gs":120}` + "\n"))
		// Keep the connection open so the snapshot below reflects the
		// oversized-line report, not a later disconnect.
		<-hold
	}()

	got := make(chan state.TrackUpdate, 2)
	c, err := NewClient(Config{Addr: ln.Addr().String(), MaxLineBytes: 64}, func(u state.TrackUpdate) {
		got <- u
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()

	select {
	case u := <-got:
		if u.Address == nil || *u.Address != 0xAABBCC {
			t.Fatalf("update address = %v, want AABBCC", u.Address)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("line after oversized run never parsed")
	}

	if snap := c.Snapshot(); !strings.Contains(snap.LastError, "line too large") {
		t.Fatalf("last_error = %q, want oversized-line report", snap.LastError)
	}
}

func TestClient_StartRequiresConfig(t *testing.T) {
	if _, err := NewClient(Config{}, func(state.TrackUpdate) {}); err == nil {
		t.Fatalf("empty addr must be rejected")
	}
	if _, err := NewClient(Config{Addr: "127.0.0.1:30002"}, nil); err == nil {
		t.Fatalf("nil emit must be rejected")
	}
}
