package core

import (
	"context"
	"net"
)

// MatchIndex answers whether a line exists in the source file.
// Implementations must be safe for concurrent use by many handlers.
type MatchIndex interface {
	// Search reports whether query equals a line of the source file.
	// A non-nil error means the source could not be read; callers treat
	// it as "not found" for the response but should record it.
	Search(query string) (bool, error)

	// Strategy names the lookup strategy ("cached" or "live").
	Strategy() string
}

// ConnectionHandler owns the full lifecycle of one accepted connection,
// including closing it.
type ConnectionHandler interface {
	HandleConnection(conn net.Conn)
}

// ConfigSource produces the raw key/value engine settings.
// It knows nothing about their meaning; validation happens in config.Load.
type ConfigSource interface {
	Load(ctx context.Context) (map[string]string, error)
}
