package telemetry

import (
	"time"

	"github.com/nathannam/frame-probe/internal/probe"
)

// EventFromEntry converts a probe log entry into its wire form.
func EventFromEntry(sessionID, correlationID string, e probe.LogEntry) ClientEvent {
	ev := ClientEvent{
		Type:          string(e.Kind),
		Timestamp:     time.UnixMilli(e.Timestamp),
		SessionID:     sessionID,
		CorrelationID: correlationID,
		EntryID:       e.ID,
		Message:       e.Message,
		Details:       e.Details,
		Severity:      string(e.Severity),
	}
	if lat, ok := e.Latency(); ok {
		ev.LatencyMs = &lat
	}
	return ev
}

// MetricsFromSnapshot flattens a metrics snapshot into one ClientMetric per
// field. Click latency is only included when a measurement exists.
func MetricsFromSnapshot(sessionID string, m probe.Metrics, at time.Time) []ClientMetric {
	blocking := 0.0
	if m.IsBlocking {
		blocking = 1
	}
	gauge := func(name string, v float64) ClientMetric {
		return ClientMetric{Name: name, Value: v, Type: metricTypeGauge, Timestamp: at, SessionID: sessionID}
	}

	out := []ClientMetric{
		gauge(MetricAvgFrameTime, m.AvgFrameTimeMs),
		gauge(MetricFrameCallRate, m.FrameCallRatePerSec),
		gauge(MetricQueuedFrames, float64(m.QueuedFrameCount)),
		gauge(MetricBlocking, blocking),
	}
	if m.ClickLatencyMs != nil {
		out = append(out, ClientMetric{
			Name:      MetricClickLatency,
			Value:     *m.ClickLatencyMs,
			Type:      metricTypeHistogram,
			Timestamp: at,
			SessionID: sessionID,
		})
	}
	return out
}

// KnownEventType reports whether t is a probe entry kind or a span.
func KnownEventType(t string) bool {
	switch probe.Kind(t) {
	case probe.KindFrameSchedule, probe.KindClickCaptured, probe.KindClickHandled, probe.KindBlockingBatch:
		return true
	}
	return t == EventTypeSpan
}

// KnownMetric reports whether name is one the probe reports.
func KnownMetric(name string) bool {
	switch name {
	case MetricAvgFrameTime, MetricFrameCallRate, MetricQueuedFrames, MetricBlocking, MetricClickLatency:
		return true
	}
	return false
}
