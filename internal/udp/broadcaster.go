// Package udp sends GDL90 frames to a configurable, usually broadcast, UDP
// destination. Loss is accepted; there is no acknowledgment or retry.
package udp

import (
	"context"
	"fmt"
	"net"
)

type Broadcaster struct {
	dest  string
	raddr *net.UDPAddr
	conn  net.PacketConn
}

// NewBroadcaster opens a UDP socket with broadcast permission for dest
// (host:port). The emission scheduler is the socket's sole owner.
func NewBroadcaster(dest string) (*Broadcaster, error) {
	raddr, err := net.ResolveUDPAddr("udp4", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	lc := net.ListenConfig{Control: enableBroadcast}
	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}

	return &Broadcaster{dest: dest, raddr: raddr, conn: conn}, nil
}

func (b *Broadcaster) Dest() string { return b.dest }

func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.WriteTo(payload, b.raddr)
	return err
}

func (b *Broadcaster) Close() error {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
