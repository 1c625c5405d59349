// Package transport opens the byte stream to the editor.
//
// The editor advertises either a unix socket path or a TCP "host:port"
// address. Dial picks the network from the address form and returns a plain
// net.Conn; all protocol knowledge lives in the layers above.
package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Network reports which network addr belongs to: "tcp" for host:port
// addresses, "unix" for anything that looks like a path.
func Network(addr string) string {
	if strings.ContainsAny(addr, `/\`) {
		return "unix"
	}
	if _, port, err := net.SplitHostPort(addr); err == nil && port != "" {
		return "tcp"
	}
	return "unix"
}

// Dial connects to the editor listening on addr. A zero timeout means no
// limit beyond ctx.
func Dial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	if addr == "" {
		return nil, fmt.Errorf("dial: empty address")
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, Network(addr), addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}
