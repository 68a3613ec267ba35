// Package ingest receives probe telemetry over HTTP and records it as
// OpenTelemetry metrics. Nothing is stored.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/nathannam/frame-probe/internal/probe"
	"github.com/nathannam/frame-probe/internal/telemetry"
)

// Config bounds what a client may send.
type Config struct {
	RatePerSecond float64
	Burst         int
	MaxBodyBytes  int64
}

// DefaultConfig allows a page reporting once per second plus bursts of
// clicks and blocking batches.
func DefaultConfig() Config {
	return Config{
		RatePerSecond: 50,
		Burst:         100,
		MaxBodyBytes:  64 << 10,
	}
}

// Server handles the telemetry endpoints.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	tracer  trace.Tracer
	limiter *rate.Limiter

	events       metric.Int64Counter
	rejected     metric.Int64Counter
	batchLatency metric.Float64Histogram
	clickLatency metric.Float64Histogram
	gauges       map[string]metric.Float64Gauge
}

// New creates the instruments on meter.
func New(meter metric.Meter, tracer trace.Tracer, logger *slog.Logger, cfg Config) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		gauges:  make(map[string]metric.Float64Gauge),
	}

	var err error
	s.events, err = meter.Int64Counter("probe.events",
		metric.WithDescription("Probe log entries received, by kind and severity"))
	if err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	s.rejected, err = meter.Int64Counter("probe.rejected",
		metric.WithDescription("Telemetry requests rejected, by reason"))
	if err != nil {
		return nil, fmt.Errorf("create rejected counter: %w", err)
	}
	s.batchLatency, err = meter.Float64Histogram("probe.blocking_batch.avg_frame_time",
		metric.WithDescription("Average frame time of flushed blocking batches"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create batch histogram: %w", err)
	}
	s.clickLatency, err = meter.Float64Histogram("probe.click.latency",
		metric.WithDescription("Capture-to-handler click latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("create click histogram: %w", err)
	}

	for _, name := range []string{
		telemetry.MetricAvgFrameTime,
		telemetry.MetricFrameCallRate,
		telemetry.MetricQueuedFrames,
		telemetry.MetricBlocking,
		telemetry.MetricClickLatency,
	} {
		g, err := meter.Float64Gauge("probe."+name, metric.WithDescription("Last reported "+name))
		if err != nil {
			return nil, fmt.Errorf("create %s gauge: %w", name, err)
		}
		s.gauges[name] = g
	}
	return s, nil
}

// Register mounts the endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc(telemetry.EventsPath, s.handleEvents)
	mux.HandleFunc(telemetry.MetricsPath, s.handleMetrics)
}

var errUnknownName = errors.New("unknown name")

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "ingest_event")
	defer span.End()

	var ev telemetry.ClientEvent
	if !s.decode(w, r, span, &ev) {
		return
	}
	if !telemetry.KnownEventType(ev.Type) {
		s.reject(w, r, span, "unknown_type", http.StatusBadRequest,
			fmt.Errorf("event type %q: %w", ev.Type, errUnknownName))
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", ev.Type),
		attribute.String("severity", ev.Severity),
	)
	s.events.Add(ctx, 1, attrs)

	if ev.LatencyMs != nil {
		switch probe.Kind(ev.Type) {
		case probe.KindBlockingBatch:
			s.batchLatency.Record(ctx, *ev.LatencyMs, attrs)
		case probe.KindClickHandled:
			s.clickLatency.Record(ctx, *ev.LatencyMs, attrs)
		}
	}

	span.SetAttributes(
		attribute.String("probe.kind", ev.Type),
		attribute.String("probe.severity", ev.Severity),
		attribute.String("probe.session_id", ev.SessionID),
	)

	switch probe.Severity(ev.Severity) {
	case probe.SeverityError, probe.SeverityWarning:
		s.logger.WarnContext(ctx, "Probe reported degraded performance",
			"kind", ev.Type,
			"severity", ev.Severity,
			"message", ev.Message,
			"details", ev.Details,
			"session_id", ev.SessionID)
	default:
		s.logger.DebugContext(ctx, "Probe event received",
			"kind", ev.Type,
			"message", ev.Message,
			"session_id", ev.SessionID)
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "ingest_metric")
	defer span.End()

	var m telemetry.ClientMetric
	if !s.decode(w, r, span, &m) {
		return
	}
	g, ok := s.gauges[m.Name]
	if !ok {
		s.reject(w, r, span, "unknown_metric", http.StatusBadRequest,
			fmt.Errorf("metric %q: %w", m.Name, errUnknownName))
		return
	}
	g.Record(ctx, m.Value)
	span.SetAttributes(
		attribute.String("probe.metric", m.Name),
		attribute.Float64("probe.value", m.Value),
	)

	w.WriteHeader(http.StatusAccepted)
}

// decode enforces method, rate and size limits and decodes the body into v.
// It writes the error response itself and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, span trace.Span, v interface{}) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.reject(w, r, span, "method", http.StatusMethodNotAllowed,
			fmt.Errorf("method %s not allowed", r.Method))
		return false
	}
	if !s.limiter.Allow() {
		s.reject(w, r, span, "rate_limited", http.StatusTooManyRequests, errors.New("rate limit exceeded"))
		return false
	}

	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, r, span, "too_large", http.StatusRequestEntityTooLarge, err)
		} else {
			s.reject(w, r, span, "malformed", http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		}
		return false
	}
	return true
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, span trace.Span, reason string, status int, err error) {
	ctx := r.Context()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	s.logger.InfoContext(ctx, "Telemetry request rejected",
		"path", r.URL.Path,
		"reason", reason,
		"status", status,
		"error", err)
	http.Error(w, http.StatusText(status), status)
}
