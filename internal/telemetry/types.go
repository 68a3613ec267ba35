package telemetry

import "time"

// Endpoint paths served by the ingestion server.
const (
	EventsPath  = "/api/telemetry/events"
	MetricsPath = "/api/telemetry/metrics"
)

// Metric names reported by the probe client.
const (
	MetricAvgFrameTime  = "avg_frame_time_ms"
	MetricFrameCallRate = "frame_call_rate"
	MetricQueuedFrames  = "queued_frames"
	MetricBlocking      = "is_blocking"
	MetricClickLatency  = "click_latency_ms"
)

// EventTypeSpan marks a ClientEvent carrying a finished client span.
const EventTypeSpan = "span"

const (
	metricTypeGauge     = "gauge"
	metricTypeHistogram = "histogram"
)

// ClientEvent represents a client-side telemetry event (shared type)
type ClientEvent struct {
	Type          string                 `json:"type"`
	Timestamp     time.Time              `json:"timestamp"`
	SessionID     string                 `json:"session_id"`
	CorrelationID string                 `json:"correlation_id"`
	EntryID       string                 `json:"entry_id,omitempty"`
	Message       string                 `json:"message,omitempty"`
	Details       string                 `json:"details,omitempty"`
	LatencyMs     *float64               `json:"latency_ms,omitempty"`
	Severity      string                 `json:"severity,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
	TraceID       string                 `json:"trace_id,omitempty"`
	SpanID        string                 `json:"span_id,omitempty"`
}

// ClientMetric represents a client-side metric (shared type)
type ClientMetric struct {
	Name      string                 `json:"name"`
	Value     float64                `json:"value"`
	Type      string                 `json:"type"` // gauge, histogram
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Labels    map[string]interface{} `json:"labels,omitempty"`
}
