// Package client sends queries to a textline server.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/logger"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/lookup"
)

// ErrQueryTooLarge is returned before sending when the framed query would
// exceed the server's read size.
var ErrQueryTooLarge = errors.New("query exceeds frame size")

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("empty query")

type Client struct {
	Addr    string
	Timeout time.Duration // dial, write and read; defaults to 5s
	Logger  *slog.Logger
}

func New(host string, port int) *Client {
	return &Client{
		Addr:    net.JoinHostPort(host, fmt.Sprint(port)),
		Timeout: 5 * time.Second,
	}
}

// Query sends one query on a fresh connection and returns the answer
// literal without its trailing newline.
func (c *Client) Query(ctx context.Context, query string) (string, error) {
	frame, err := Frame(query)
	if err != nil {
		return "", err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", c.Addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(frame); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}
	c.log().Debug("Sent query", "query", query, "bytes", len(frame))

	buf := make([]byte, lookup.MaxQuerySize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil {
			err = errors.New("empty response")
		}
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	raw := strings.ToValidUTF8(string(buf[:n]), "")
	c.log().Debug("Raw response", "response", raw)
	return strings.TrimSpace(raw), nil
}

// QueryWithRetry retries once on a fresh connection when the first
// attempt fails in transport. It does not retry once ctx is done.
func (c *Client) QueryWithRetry(ctx context.Context, query string) (string, error) {
	resp, err := c.Query(ctx, query)
	if err == nil || errors.Is(err, ErrQueryTooLarge) || errors.Is(err, ErrEmptyQuery) {
		return resp, err
	}
	if ctxDone(ctx) {
		return "", err
	}
	c.log().Info("Connection lost, attempting to reconnect...", "error", err)
	return c.Query(ctx, query)
}

// ctxDone also reports a passed deadline whose timer has not fired yet.
func ctxDone(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	dl, ok := ctx.Deadline()
	return ok && !time.Now().Before(dl)
}

// Frame encodes a query as sent on the wire.
func Frame(query string) ([]byte, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	frame := []byte(query + "\n")
	if len(frame) > lookup.MaxQuerySize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrQueryTooLarge, len(frame), lookup.MaxQuerySize)
	}
	return frame, nil
}

func (c *Client) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logger.Discard()
}
