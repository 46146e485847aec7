// Package netutil collects small networking helpers shared by a
// collector daemon's listen path and its tests. Listen is what
// cmd/dqmcollectord actually binds its transport socket with
// (internal/transport/binarybus.Listen), so a collector restarted
// after a crash can rebind a Unix socket its previous incarnation left
// behind; WaitForListener waits until a TCP address accepts
// connections, polling rather than relying on a fixed sleep.
package netutil

import (
	"net"
	"os"
	"strings"
)

// Listen binds network/address. For "unix", a stale socket file from
// a process that exited uncleanly is removed and rebind is retried
// once, rather than failing with "address already in use" forever.
func Listen(network string, address string) (net.Listener, error) {
	if network != "unix" {
		return net.Listen(network, address)
	}
	listener, err := net.Listen(network, address)
	if err != nil && strings.HasSuffix(err.Error(), "bind: address already in use") && !reachable(address) {
		_ = os.Remove(address)
		listener, err = net.Listen(network, address)
	}
	return listener, err
}

func reachable(pathname string) bool {
	conn, err := net.Dial("unix", pathname)
	if conn != nil {
		defer func() { _ = conn.Close() }()
	}
	if err == nil {
		return true
	}
	return !strings.HasSuffix(err.Error(), "connect: connection refused")
}
