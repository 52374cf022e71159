// Package adsb ingests the decoded Mode-S feed: a TCP stream of
// newline-delimited JSON objects, one per downlink message, produced by an
// external decoder. Each line becomes at most one partial track update.
package adsb

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"gdl90-bridge/internal/state"
)

type Config struct {
	Addr string

	ReconnectDelay time.Duration
	MaxLineBytes   int

	// DialTimeout is used for the initial TCP connect.
	DialTimeout time.Duration
}

// Client connects to the decoder feed and hands parsed updates to the emit
// callback. The callback must not block; the emitter drains a bounded
// channel on the other side and drops when it is full.
type Client struct {
	cfg  Config
	emit func(state.TrackUpdate)

	started atomic.Bool
	closed  atomic.Bool

	mu       sync.RWMutex
	state    string
	lastErr  string
	lastSeen time.Time
	count    uint64

	cancel context.CancelFunc
	done   chan struct{}
}

type Snapshot struct {
	Addr        string `json:"addr"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Lines       uint64 `json:"lines"`
}

func NewClient(cfg Config, emit func(state.TrackUpdate)) (*Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("adsb addr is required")
	}
	if emit == nil {
		return nil, fmt.Errorf("adsb emit callback is nil")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 10 * time.Second
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = 256 * 1024
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}

	return &Client{cfg: cfg, emit: emit, state: "stopped", done: make(chan struct{})}, nil
}

func (c *Client) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("adsb client is nil")
	}
	if c.closed.Load() {
		return fmt.Errorf("adsb client is closed")
	}
	if c.started.Swap(true) {
		return fmt.Errorf("adsb client already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setState("connecting", "")

	go func() {
		defer close(c.done)
		c.runLoop(runCtx)
	}()
	return nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.closed.Swap(true) {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

func (c *Client) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	out := Snapshot{
		Addr:      c.cfg.Addr,
		State:     c.state,
		LastError: c.lastErr,
		Lines:     c.count,
	}
	lastSeen := c.lastSeen
	c.mu.RUnlock()

	if !lastSeen.IsZero() {
		out.LastSeenUTC = lastSeen.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func (c *Client) runLoop(ctx context.Context) {
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}

	for {
		select {
		case <-ctx.Done():
			c.setState("stopped", "")
			return
		default:
		}

		c.setState("connecting", "")
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
		if err != nil {
			c.setState("error", err.Error())
			if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
				c.setState("stopped", "")
				return
			}
			continue
		}

		c.setState("connected", "")
		c.readConn(ctx, conn)

		if ctx.Err() != nil {
			c.setState("stopped", "")
			return
		}
		if !sleepCtx(ctx, c.cfg.ReconnectDelay) {
			c.setState("stopped", "")
			return
		}
	}
}

func (c *Client) readConn(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	// Unblock the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	// The reader size caps per-line memory: a newline-free stream fills the
	// buffer and is discarded in MaxLineBytes slabs instead of growing.
	reader := bufio.NewReaderSize(conn, c.cfg.MaxLineBytes)
	for {
		line, err := reader.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			oversized := len(line)
			for errors.Is(err, bufio.ErrBufferFull) {
				line, err = reader.ReadSlice('\n')
				oversized += len(line)
			}
			if err == nil {
				c.setState("error", fmt.Sprintf("line too large (%d bytes)", oversized))
				continue
			}
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				c.setState("disconnected", "")
			} else {
				c.setState("disconnected", err.Error())
			}
			return
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		now := time.Now().UTC()
		if u := ParseDecodedLine(now, line); u != nil {
			c.emit(*u)
		}

		c.mu.Lock()
		c.lastSeen = now
		c.count++
		c.mu.Unlock()
	}
}

func (c *Client) setState(state string, lastErr string) {
	c.mu.Lock()
	c.state = state
	if lastErr != "" {
		c.lastErr = lastErr
	} else {
		// Clear stale errors on healthy/neutral states so status output doesn't
		// look broken after a transient startup failure.
		if state == "connected" || state == "connecting" || state == "stopped" {
			c.lastErr = ""
		}
	}
	c.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
