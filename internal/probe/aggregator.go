package probe

import (
	"fmt"
	"math"
)

// FlushTrigger records why a blocking batch was flushed. The two triggers
// classify severity differently.
type FlushTrigger int

const (
	// FlushSize fires when the batch reaches its cap. Severity is error when
	// the error-class count exceeds an absolute limit.
	FlushSize FlushTrigger = iota
	// FlushTick fires from the periodic reporter. Severity is error when more
	// than half the batch is error-class.
	FlushTick
)

func (t FlushTrigger) String() string {
	switch t {
	case FlushSize:
		return "size"
	case FlushTick:
		return "tick"
	default:
		return "unknown"
	}
}

// BatchSummary describes one flushed batch.
type BatchSummary struct {
	Trigger  FlushTrigger
	Count    int
	AvgMs    float64
	MaxMs    float64
	MinMs    float64
	Errors   int // frames above SevereFrameMs
	Warnings int // frames in (FrameBudgetMs, SevereFrameMs]
	Severity Severity
}

// Aggregator batches blocking frame durations and summarizes them.
type Aggregator struct {
	cfg   Config
	batch []float64
}

// NewAggregator returns an empty aggregator using cfg's thresholds.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg, batch: make([]float64, 0, cfg.BatchSize)}
}

// Len is the number of frames waiting in the current batch.
func (a *Aggregator) Len() int { return len(a.batch) }

// Record adds a blocking frame. When the batch reaches its cap it is
// flushed and the summary returned with ok set.
func (a *Aggregator) Record(ms float64) (summary BatchSummary, ok bool) {
	a.batch = append(a.batch, ms)
	if len(a.batch) < a.cfg.BatchSize {
		return BatchSummary{}, false
	}
	return a.Flush(FlushSize)
}

// Flush summarizes and clears the batch. It reports ok=false when the batch
// is empty.
func (a *Aggregator) Flush(trigger FlushTrigger) (summary BatchSummary, ok bool) {
	if len(a.batch) == 0 {
		return BatchSummary{}, false
	}

	s := BatchSummary{
		Trigger: trigger,
		Count:   len(a.batch),
		MaxMs:   math.Inf(-1),
		MinMs:   math.Inf(1),
	}
	var sum float64
	for _, ms := range a.batch {
		sum += ms
		s.MaxMs = math.Max(s.MaxMs, ms)
		s.MinMs = math.Min(s.MinMs, ms)
		switch {
		case ms > a.cfg.SevereFrameMs:
			s.Errors++
		case ms > a.cfg.FrameBudgetMs:
			s.Warnings++
		}
	}
	s.AvgMs = sum / float64(s.Count)
	s.Severity = a.severity(trigger, s.Errors, s.Count)

	a.batch = a.batch[:0]
	return s, true
}

// severity keeps the two historical rules apart: an absolute error count for
// full batches and a majority rule for partial ones flushed by the reporter.
func (a *Aggregator) severity(trigger FlushTrigger, errors, size int) Severity {
	var isError bool
	if trigger == FlushSize {
		isError = errors > a.cfg.SizeFlushErrorCount
	} else {
		isError = float64(errors) > float64(size)/2
	}
	if isError {
		return SeverityError
	}
	return SeverityWarning
}

func (a *Aggregator) Reset() { a.batch = a.batch[:0] }

// entry renders a summary as a blocking-batch log entry.
func (s BatchSummary) entry(cfg Config, queueDepth int, timestamp int64) LogEntry {
	return LogEntry{
		ID:        newEntryID(KindBlockingBatch),
		Timestamp: timestamp,
		Kind:      KindBlockingBatch,
		Message: fmt.Sprintf("Batch of %d blocking frames: Avg %.2fms, Max %.2fms, Min %.2fms",
			s.Count, s.AvgMs, s.MaxMs, s.MinMs),
		Details: fmt.Sprintf("%d errors (>%gms), %d warnings (%g-%gms). Queue depth: %d",
			s.Errors, cfg.SevereFrameMs, s.Warnings, cfg.FrameBudgetMs, cfg.SevereFrameMs, queueDepth),
		LatencyMs: floatPtr(s.AvgMs),
		Severity:  s.Severity,
	}
}
