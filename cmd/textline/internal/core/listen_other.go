//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package core

import (
	"errors"
	"syscall"
)

func socketControl(opts ListenOptions) func(network, address string, c syscall.RawConn) error {
	if !opts.ReusePort {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		return errors.New("SO_REUSEPORT is not supported on this platform")
	}
}
