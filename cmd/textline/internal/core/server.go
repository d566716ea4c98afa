package core

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/logger"
)

// Server is the generic TCP lookup server.
// It depends ONLY on interfaces, not concrete implementations.
type Server struct {
	Listener          net.Listener
	ConnectionHandler ConnectionHandler
	Logger            *slog.Logger

	// AcceptBackoff throttles retries after accept errors. Nil means
	// 20 retries per second with a burst of 5.
	AcceptBackoff *rate.Limiter

	mu       sync.Mutex
	closing  bool
	handlers sync.WaitGroup
}

// Serve accepts connections until Shutdown is called and runs each one on
// its own goroutine. It returns nil after Shutdown; accept errors never end
// the loop otherwise.
func (s *Server) Serve() error {
	if s.Listener == nil || s.ConnectionHandler == nil {
		return errors.New("server requires a listener and a connection handler")
	}
	log := s.logger()
	backoff := s.AcceptBackoff
	if backoff == nil {
		backoff = rate.NewLimiter(rate.Limit(20), 5)
	}

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			log.Error("Accept failed", "error", err)
			_ = backoff.Wait(context.Background())
			continue
		}

		if !s.track() {
			conn.Close()
			return nil
		}
		go s.handleConnection(conn)
	}
}

// Shutdown stops accepting connections and waits for in-flight handlers
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	var err error
	if s.Listener != nil {
		err = s.Listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConnection(clientConn net.Conn) {
	defer s.handlers.Done()
	// Delegate the entire lifecycle to the handler
	s.ConnectionHandler.HandleConnection(clientConn)
}

// track registers a handler unless shutdown has begun.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.handlers.Add(1)
	return true
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger.Discard()
}
