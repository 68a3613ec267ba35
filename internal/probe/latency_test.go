package probe

import "testing"

func TestClickLatencyMeasured(t *testing.T) {
	s, clock, _, _ := newTestSession(t)

	clock.hires = 1000.0
	if !s.CaptureClick(ClickEvent{TargetID: "test-button", TargetTag: "BUTTON", ClientX: 12, ClientY: 34.5, Phase: 1}) {
		t.Fatal("capture on tracked element was ignored")
	}
	clock.hires = 1130.5
	e := s.HandleClick(ClickEvent{TargetID: "test-button", CurrentTargetTag: "BUTTON", Phase: 2})

	lat, ok := e.Latency()
	if !ok || lat != 130.5 {
		t.Fatalf("latency = %v (%t), want 130.5", lat, ok)
	}
	if e.Severity != SeverityError {
		t.Errorf("severity = %s, want error", e.Severity)
	}
	if want := "Click handler executed (130.50ms latency)"; e.Message != want {
		t.Errorf("message = %q, want %q", e.Message, want)
	}
	if want := "High latency! Event phase: 2, frame queue: 0, Avg frame: 0.00ms"; e.Details != want {
		t.Errorf("details = %q, want %q", e.Details, want)
	}

	m := s.Snapshot()
	if m.ClickLatencyMs == nil || *m.ClickLatencyMs != 130.5 {
		t.Errorf("metrics click latency = %v", m.ClickLatencyMs)
	}
	if m.LastClickTimestamp == nil || *m.LastClickTimestamp != 1000 {
		t.Errorf("last click = %v", m.LastClickTimestamp)
	}
	if m.LastHandlerTimestamp == nil || *m.LastHandlerTimestamp != 1130.5 {
		t.Errorf("last handler = %v", m.LastHandlerTimestamp)
	}

	captured := entriesOfKind(s.Logs(), KindClickCaptured)
	if len(captured) != 1 || captured[0].Details != "Target: BUTTON, X: 12, Y: 34.5" {
		t.Errorf("captured entries = %+v", captured)
	}
}

func TestClickWithoutCaptureHasNoLatency(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	e := s.HandleClick(ClickEvent{CurrentTargetTag: "BUTTON", Phase: 2})
	if e.LatencyMs != nil {
		t.Errorf("latency = %v, want absent", *e.LatencyMs)
	}
	if e.Severity != SeverityInfo {
		t.Errorf("severity = %s, want info", e.Severity)
	}
	if e.Message != "Click handler executed" {
		t.Errorf("message = %q", e.Message)
	}
	if want := "Event phase: 2, Current target: BUTTON"; e.Details != want {
		t.Errorf("details = %q, want %q", e.Details, want)
	}
	if m := s.Snapshot(); m.ClickLatencyMs != nil {
		t.Errorf("metrics latency = %v, want nil", *m.ClickLatencyMs)
	}
}

func TestHandlerConsumesPendingCapture(t *testing.T) {
	s, clock, _, _ := newTestSession(t)

	s.CaptureClick(ClickEvent{TargetID: "test-button"})
	clock.advance(3)
	s.HandleClick(ClickEvent{})
	if e := s.HandleClick(ClickEvent{}); e.LatencyMs != nil {
		t.Errorf("second handler reused capture: %v", *e.LatencyMs)
	}
}

func TestLatestCaptureWins(t *testing.T) {
	s, clock, _, _ := newTestSession(t)

	clock.hires = 1000
	s.CaptureClick(ClickEvent{TargetID: "test-button"})
	clock.hires = 1050
	s.CaptureClick(ClickEvent{TargetID: "test-button"})
	clock.hires = 1060
	e := s.HandleClick(ClickEvent{})

	if lat, _ := e.Latency(); lat != 10 {
		t.Errorf("latency = %v, want 10 (attributed to the latest capture)", lat)
	}
}

func TestCaptureIgnoresOtherTargets(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	if s.CaptureClick(ClickEvent{TargetID: "other"}) {
		t.Error("capture accepted a click on another element")
	}
	if e := s.HandleClick(ClickEvent{}); e.LatencyMs != nil {
		t.Error("handler saw a pending capture from another element")
	}
}

func TestClickAfterStopIsIgnored(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	s.Stop()
	before := len(s.Logs())

	if s.CaptureClick(ClickEvent{TargetID: "test-button"}) {
		t.Error("stopped session accepted a capture")
	}
	if e := s.HandleClick(ClickEvent{}); e.ID != "" {
		t.Error("stopped session emitted a handler entry")
	}
	if got := len(s.Logs()); got != before {
		t.Errorf("log grew after stop: %d -> %d", before, got)
	}
}

func TestClassifyClickLatency(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		latency  float64
		measured bool
		want     Severity
	}{
		{0, false, SeverityInfo},
		{500, false, SeverityInfo},
		{0, true, SeverityInfo},
		{16.67, true, SeverityInfo},
		{16.68, true, SeverityWarning},
		{100, true, SeverityWarning},
		{100.01, true, SeverityError},
	}
	for _, tt := range tests {
		if got := ClassifyClickLatency(cfg, tt.latency, tt.measured); got != tt.want {
			t.Errorf("ClassifyClickLatency(%v, %t) = %s, want %s", tt.latency, tt.measured, got, tt.want)
		}
	}
}
