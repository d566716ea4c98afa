package lookup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/core"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/logger"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/metrics"
)

const tracerName = "github.com/MachariaP/TextLineServer/lookup"

// Connection states, logged under the "state" key.
const (
	stateAccepted   = "accepted"
	stateReading    = "reading"
	stateMatching   = "matching"
	stateResponding = "responding"
	stateClosed     = "closed"
	stateErrored    = "errored"
)

// Handler answers exactly one query per connection against a shared
// MatchIndex. It is safe for concurrent use.
type Handler struct {
	index       core.MatchIndex
	logger      *slog.Logger
	metrics     *metrics.Metrics
	readTimeout time.Duration
	tracer      trace.Tracer
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithMetrics records connection and query metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithReadTimeout bounds the wait for the request frame and the response
// write. Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.readTimeout = d
	}
}

// WithTracerProvider traces lookups with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		h.tracer = tp.Tracer(tracerName)
	}
}

func NewHandler(index core.MatchIndex, opts ...Option) *Handler {
	h := &Handler{
		index:  index,
		logger: logger.Discard(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConnection implements core.ConnectionHandler.
// It takes full ownership of the connection lifecycle.
func (h *Handler) HandleConnection(conn net.Conn) {
	log := h.logger.With("conn_id", uuid.NewString(), "remote_addr", remoteAddr(conn))

	h.metrics.ConnectionOpened()
	defer h.metrics.ConnectionClosed()
	defer func() {
		conn.Close()
		log.Debug("Connection closed", "state", stateClosed)
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panicked", "state", stateErrored, "panic", r)
		}
	}()

	log.Debug("Connection accepted", "state", stateAccepted)

	// 1. Read one frame
	if h.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
	buf := make([]byte, MaxQuerySize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			log.Warn("Read failed", "state", stateErrored, "error", err)
		} else {
			log.Debug("Peer closed without sending a query", "state", stateReading)
		}
		return
	}
	raw := buf[:n]
	log.Debug("Received payload", "state", stateReading, "bytes", n)
	if stripped := len(raw) - len(bytes.TrimRight(raw, "\x00")); stripped > 0 {
		log.Debug("Stripped NUL padding", "bytes", stripped)
	}

	// 2. Normalize and search
	query := ParseQuery(raw)
	log.Debug("Decoded query", "state", stateMatching, "query", query)
	found := h.search(log, query)

	// 3. Respond
	response := Response(found)
	if h.readTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.readTimeout))
	}
	if _, err := io.WriteString(conn, response); err != nil {
		log.Warn("Write failed", "state", stateErrored, "error", err)
		return
	}
	log.Debug("Sent response", "state", stateResponding, "response", response[:len(response)-1])
}

// search runs the lookup, treating index failures as "not found" while
// keeping them distinct in logs, metrics and traces.
func (h *Handler) search(log *slog.Logger, query string) bool {
	strategy := h.index.Strategy()
	_, span := h.tracer.Start(context.Background(), "textline.lookup",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("textline.strategy", strategy),
			attribute.Int("textline.query_bytes", len(query)),
		),
	)
	defer span.End()

	start := time.Now()
	found, err := h.index.Search(query)
	elapsed := time.Since(start)

	if err != nil {
		h.metrics.ObserveQuery(strategy, metrics.ResultError, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("Source lookup failed, answering not found",
			"state", stateErrored, "strategy", strategy, "error", err)
		return false
	}

	result := metrics.ResultNotFound
	if found {
		result = metrics.ResultFound
	}
	h.metrics.ObserveQuery(strategy, result, elapsed)
	span.SetAttributes(attribute.Bool("textline.found", found))
	span.SetStatus(codes.Ok, "")
	log.Debug("Lookup finished", "strategy", strategy, "result", result, "duration", elapsed)
	return found
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
