//go:build js && wasm

package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"syscall/js"
	"time"

	"github.com/google/uuid"

	"github.com/nathannam/frame-probe/internal/probe"
)

// ClientTelemetry forwards the probe feed to the ingestion server. It
// implements probe.Listener; every send is fire-and-forget.
type ClientTelemetry struct {
	sessionID     string
	correlationID string
	serverURL     string
	logger        *slog.Logger
	sent          int64
	failed        int64
}

var _ probe.Listener = (*ClientTelemetry)(nil)

// NewClientTelemetry creates a new client telemetry instance
func NewClientTelemetry(serverURL string, logger *slog.Logger) *ClientTelemetry {
	return &ClientTelemetry{
		sessionID:     "session_" + uuid.NewString(),
		correlationID: "corr_" + uuid.NewString(),
		serverURL:     serverURL,
		logger:        logger,
	}
}

// EntryAdded sends a probe log entry as an event.
func (ct *ClientTelemetry) EntryAdded(e probe.LogEntry) {
	ct.sendEvent(EventFromEntry(ct.sessionID, ct.correlationID, e))
}

// MetricsUpdated sends one metric per snapshot field.
func (ct *ClientTelemetry) MetricsUpdated(m probe.Metrics) {
	for _, metric := range MetricsFromSnapshot(ct.sessionID, m, time.Now()) {
		ct.sendMetric(metric)
	}
}

// StartSpan creates a new trace span (simplified implementation)
func (ct *ClientTelemetry) StartSpan(operationName string) *ClientSpan {
	return &ClientSpan{
		TraceID:       uuid.NewString(),
		SpanID:        uuid.NewString(),
		OperationName: operationName,
		StartTime:     time.Now(),
		SessionID:     ct.sessionID,
		telemetry:     ct,
	}
}

func (ct *ClientTelemetry) sendEvent(event ClientEvent) {
	go ct.sendToServer(EventsPath, event)
}

func (ct *ClientTelemetry) sendMetric(metric ClientMetric) {
	go ct.sendToServer(MetricsPath, metric)
}

// sendToServer POSTs data with fetch. Failures are logged and counted,
// never surfaced to the page.
func (ct *ClientTelemetry) sendToServer(endpoint string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		ct.failed++
		ct.logger.Error("failed to marshal telemetry", "endpoint", endpoint, "error", err)
		return
	}

	fetch := js.Global().Get("fetch")
	if fetch.Type() != js.TypeFunction {
		ct.failed++
		return
	}

	options := map[string]interface{}{
		"method": "POST",
		"headers": map[string]interface{}{
			"Content-Type":     "application/json",
			"X-Session-ID":     ct.sessionID,
			"X-Correlation-ID": ct.correlationID,
		},
		"body":      string(jsonData),
		"keepalive": true,
	}
	promise := fetch.Invoke(ct.serverURL+endpoint, js.ValueOf(options))
	ct.sent++

	var onError js.Func
	onError = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		defer onError.Release()
		ct.failed++
		reason := "unknown"
		if len(args) > 0 {
			reason = args[0].Call("toString").String()
		}
		ct.logger.Warn("failed to send telemetry", "endpoint", endpoint, "reason", reason, "failed", ct.failed)
		return nil
	})
	promise.Call("catch", onError)
}

// GetSessionID returns the current session ID
func (ct *ClientTelemetry) GetSessionID() string {
	return ct.sessionID
}

// Stats returns how many sends were attempted and how many failed.
func (ct *ClientTelemetry) Stats() (sent, failed int64) {
	return ct.sent, ct.failed
}

// ClientSpan represents a trace span on the client side
type ClientSpan struct {
	TraceID       string
	SpanID        string
	OperationName string
	StartTime     time.Time
	SessionID     string
	Attributes    map[string]interface{}
	telemetry     *ClientTelemetry
}

// SetAttribute adds an attribute to the span
func (cs *ClientSpan) SetAttribute(key string, value interface{}) {
	if cs.Attributes == nil {
		cs.Attributes = make(map[string]interface{})
	}
	cs.Attributes[key] = value
}

// End finishes the span and sends it
func (cs *ClientSpan) End() {
	duration := time.Since(cs.StartTime)

	attributes := map[string]interface{}{
		"duration_ms":    duration.Milliseconds(),
		"operation_name": cs.OperationName,
	}
	for k, v := range cs.Attributes {
		attributes[k] = v
	}

	cs.telemetry.sendEvent(ClientEvent{
		Type:          EventTypeSpan,
		Timestamp:     cs.StartTime,
		SessionID:     cs.SessionID,
		CorrelationID: cs.telemetry.correlationID,
		Message:       fmt.Sprintf("%s finished in %s", cs.OperationName, duration),
		TraceID:       cs.TraceID,
		SpanID:        cs.SpanID,
		Attributes:    attributes,
	})
}
