package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Options controls logger construction.
type Options struct {
	// Debug enables debug level logging and source locations.
	Debug bool

	// File, when set, receives a copy of every record (appended).
	File string

	// Output is the primary sink. Defaults to os.Stdout.
	Output io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a text logger. The returned Closer releases the log file, if
// one was opened.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level: level,
		// Add source file information if in debug mode
		AddSource: level == slog.LevelDebug,
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		out = io.MultiWriter(out, &bestEffort{w: f})
		closer = f
	}

	return slog.New(slog.NewTextHandler(out, handlerOpts)), closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bestEffort swallows write errors so a failing log file never stops the
// other sinks or the caller.
type bestEffort struct {
	w io.Writer
}

func (b *bestEffort) Write(p []byte) (int, error) {
	_, _ = b.w.Write(p)
	return len(p), nil
}
