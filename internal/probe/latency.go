package probe

import "fmt"

// ClickEvent carries the parts of a DOM click the tracker reads.
type ClickEvent struct {
	TargetID         string
	TargetTag        string
	CurrentTargetTag string
	ClientX          float64
	ClientY          float64
	// Phase is the DOM eventPhase: 1 capturing, 2 at target, 3 bubbling.
	Phase int
}

// ClassifyClickLatency maps a handler latency to a severity. A missing
// measurement is info.
func ClassifyClickLatency(cfg Config, latencyMs float64, measured bool) Severity {
	switch {
	case !measured || latencyMs <= cfg.FrameBudgetMs:
		return SeverityInfo
	case latencyMs <= cfg.ClickErrorMs:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// CaptureClick is the capture-phase observer. Clicks on anything but the
// tracked element are ignored. Only the latest capture is kept.
func (s *Session) CaptureClick(ev ClickEvent) bool {
	s.mu.Lock()
	if !s.active || ev.TargetID != s.cfg.TargetID {
		s.mu.Unlock()
		return false
	}
	at := s.clock.Now()
	s.pendingClick = at
	s.hasPendingClick = true
	s.metrics.LastClickTimestamp = floatPtr(at)

	var c changes
	s.emitLocked(&c, LogEntry{
		ID:        newEntryID(KindClickCaptured),
		Timestamp: s.clock.Wall().UnixMilli(),
		Kind:      KindClickCaptured,
		Message:   fmt.Sprintf("#%s clicked (event captured)", ev.TargetID),
		Details:   fmt.Sprintf("Target: %s, X: %g, Y: %g", ev.TargetTag, ev.ClientX, ev.ClientY),
	})
	c.metrics = true
	c.snapshot = s.metrics.clone()
	s.mu.Unlock()

	s.notify(c)
	return true
}

// HandleClick runs inside the tracked element's own click handler. It
// attributes the latency since the pending capture, if any, and clears it.
// The returned entry is the zero value when the session is inactive.
func (s *Session) HandleClick(ev ClickEvent) LogEntry {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return LogEntry{}
	}
	handledAt := s.clock.Now()
	latency, measured := handledAt-s.pendingClick, s.hasPendingClick

	e := LogEntry{
		ID:        newEntryID(KindClickHandled),
		Timestamp: s.clock.Wall().UnixMilli(),
		Kind:      KindClickHandled,
		Message:   "Click handler executed",
		Severity:  ClassifyClickLatency(s.cfg, latency, measured),
	}
	if measured {
		e.Message = fmt.Sprintf("Click handler executed (%.2fms latency)", latency)
		e.LatencyMs = floatPtr(latency)
	}
	if measured && latency > s.cfg.FrameBudgetMs {
		e.Details = fmt.Sprintf("High latency! Event phase: %d, frame queue: %d, Avg frame: %.2fms",
			ev.Phase, s.queued, s.history.Average())
	} else {
		e.Details = fmt.Sprintf("Event phase: %d, Current target: %s", ev.Phase, ev.CurrentTargetTag)
	}

	s.metrics.ClickLatencyMs = copyFloat(e.LatencyMs)
	s.metrics.LastHandlerTimestamp = floatPtr(handledAt)
	s.hasPendingClick = false

	var c changes
	s.emitLocked(&c, e)
	c.metrics = true
	c.snapshot = s.metrics.clone()
	s.mu.Unlock()

	s.notify(c)
	return e
}
