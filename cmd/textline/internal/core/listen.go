package core

import (
	"context"
	"net"
	"strconv"
)

// ListenOptions controls how the lookup listener is bound.
type ListenOptions struct {
	Host string
	Port int

	// ReusePort sets SO_REUSEPORT so several server processes can share
	// one port and let the kernel spread connections between them.
	ReusePort bool
}

// Listen binds a TCP listener on Host:Port.
func Listen(ctx context.Context, opts ListenOptions) (net.Listener, error) {
	lc := net.ListenConfig{Control: socketControl(opts)}
	return lc.Listen(ctx, "tcp", net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)))
}
