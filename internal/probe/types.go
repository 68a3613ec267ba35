package probe

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which producer emitted a LogEntry.
type Kind string

const (
	KindFrameSchedule Kind = "frame-schedule"
	KindClickCaptured Kind = "click-captured"
	KindClickHandled  Kind = "click-handled"
	KindBlockingBatch Kind = "blocking-batch"
)

// Severity flags how degraded a measurement is. The zero value means the
// entry carries no classification.
type Severity string

const (
	SeverityNone    Severity = ""
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is an immutable record in the event log.
type LogEntry struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"timestamp"` // epoch ms
	Kind      Kind     `json:"kind"`
	Message   string   `json:"message"`
	Details   string   `json:"details,omitempty"`
	LatencyMs *float64 `json:"latencyMs,omitempty"`
	Severity  Severity `json:"severity,omitempty"`
}

// Latency returns the entry latency and whether one was recorded.
func (e LogEntry) Latency() (float64, bool) {
	if e.LatencyMs == nil {
		return 0, false
	}
	return *e.LatencyMs, true
}

// Metrics is the live snapshot rendered by the dashboard.
type Metrics struct {
	ClickLatencyMs       *float64 `json:"clickLatencyMs"`
	AvgFrameTimeMs       float64  `json:"avgFrameTimeMs"`
	FrameCallRatePerSec  float64  `json:"frameCallRatePerSec"`
	QueuedFrameCount     int      `json:"queuedFrameCount"`
	IsBlocking           bool     `json:"isBlocking"`
	LastClickTimestamp   *float64 `json:"lastClickTimestamp"`
	LastHandlerTimestamp *float64 `json:"lastHandlerTimestamp"`
}

// clone returns a copy that shares no pointers with m.
func (m Metrics) clone() Metrics {
	m.ClickLatencyMs = copyFloat(m.ClickLatencyMs)
	m.LastClickTimestamp = copyFloat(m.LastClickTimestamp)
	m.LastHandlerTimestamp = copyFloat(m.LastHandlerTimestamp)
	return m
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func floatPtr(v float64) *float64 { return &v }

func newEntryID(kind Kind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}
