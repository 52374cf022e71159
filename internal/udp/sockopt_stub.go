//go:build !unix

package udp

import "syscall"

func enableBroadcast(network, address string, c syscall.RawConn) error {
	// Broadcast permission is the default or unavailable on this platform.
	return nil
}
