package probe

import (
	"fmt"
	"strings"
	"time"
)

// reportLocked runs the periodic summary. It is only reached from a frame
// request, so an interval with no scheduled frames produces no report.
func (s *Session) reportLocked(c *changes, now time.Time) {
	ts := now.UnixMilli()
	if sum, ok := s.agg.Flush(FlushTick); ok {
		s.emitLocked(c, sum.entry(s.cfg, s.queued, ts))
	}

	avg := s.history.Average()
	s.emitLocked(c, LogEntry{
		ID:        newEntryID(KindFrameSchedule),
		Timestamp: ts,
		Kind:      KindFrameSchedule,
		Message: fmt.Sprintf("requestAnimationFrame: %d calls/sec, Avg frame: %.2fms, Queue: %d",
			s.callCount, avg, s.queued),
		Details: "Frame times: " + formatDurations(s.history.Last(s.cfg.RecentFrames)) + "ms",
	})

	s.metrics.FrameCallRatePerSec = float64(s.callCount)
	s.metrics.AvgFrameTimeMs = avg
	s.metrics.QueuedFrameCount = s.queued
	s.metrics.IsBlocking = avg > s.cfg.FrameBudgetMs || s.queued > s.cfg.BacklogThreshold
	c.metrics = true
	c.snapshot = s.metrics.clone()

	s.callCount = 0
	s.lastReport = now
}

func formatDurations(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return strings.Join(parts, ", ")
}
