package probe

import (
	"strings"
	"testing"
)

func fill(a *Aggregator, errors, warnings int) {
	for i := 0; i < errors; i++ {
		a.Record(60)
	}
	for i := 0; i < warnings; i++ {
		a.Record(20)
	}
}

func TestAggregatorSizeFlushSeverity(t *testing.T) {
	tests := []struct {
		errors int
		want   Severity
	}{
		{errors: 0, want: SeverityWarning},
		{errors: 30, want: SeverityWarning},
		{errors: 31, want: SeverityError},
	}

	for _, tt := range tests {
		a := NewAggregator(DefaultConfig())
		fill(a, tt.errors, 59-tt.errors)
		sum, ok := a.Record(20)
		if !ok {
			t.Fatalf("errors=%d: expected flush at 60 frames", tt.errors)
		}
		if sum.Trigger != FlushSize {
			t.Errorf("errors=%d: trigger = %s, want size", tt.errors, sum.Trigger)
		}
		if sum.Severity != tt.want {
			t.Errorf("errors=%d: severity = %s, want %s", tt.errors, sum.Severity, tt.want)
		}
		if a.Len() != 0 {
			t.Errorf("errors=%d: batch not reset, len=%d", tt.errors, a.Len())
		}
	}
}

func TestAggregatorAllErrorFrames(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	var last BatchSummary
	var flushed int
	for i := 0; i < 60; i++ {
		if sum, ok := a.Record(75); ok {
			last = sum
			flushed++
		}
	}
	if flushed != 1 {
		t.Fatalf("expected one flush, got %d", flushed)
	}
	if last.Errors != 60 || last.Severity != SeverityError {
		t.Errorf("got errors=%d severity=%s, want 60/error", last.Errors, last.Severity)
	}
}

func TestAggregatorTickFlushSeverity(t *testing.T) {
	tests := []struct {
		name     string
		errors   int
		warnings int
		want     Severity
	}{
		{"single error", 1, 0, SeverityError},
		{"half is not a majority", 2, 2, SeverityWarning},
		{"odd majority", 3, 2, SeverityError},
		{"odd minority", 2, 3, SeverityWarning},
		{"no errors", 0, 7, SeverityWarning},
		// 31 errors in a partial batch of 59 is still a majority.
		{"large partial", 31, 28, SeverityError},
		{"large partial minority", 29, 30, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator(DefaultConfig())
			fill(a, tt.errors, tt.warnings)
			sum, ok := a.Flush(FlushTick)
			if !ok {
				t.Fatal("expected a flush")
			}
			if sum.Severity != tt.want {
				t.Errorf("severity = %s, want %s", sum.Severity, tt.want)
			}
			if sum.Count != tt.errors+tt.warnings {
				t.Errorf("count = %d, want %d", sum.Count, tt.errors+tt.warnings)
			}
		})
	}
}

func TestAggregatorFlushEmptyIsNoop(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	if _, ok := a.Flush(FlushTick); ok {
		t.Error("flush of empty batch reported a summary")
	}
}

func TestAggregatorStats(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	for _, ms := range []float64{20, 50, 50.5, 17.5} {
		a.Record(ms)
	}
	sum, _ := a.Flush(FlushTick)

	if sum.MaxMs != 50.5 || sum.MinMs != 17.5 {
		t.Errorf("max/min = %v/%v, want 50.5/17.5", sum.MaxMs, sum.MinMs)
	}
	if sum.AvgMs != 34.5 {
		t.Errorf("avg = %v, want 34.5", sum.AvgMs)
	}
	// 50 exactly is warning-class, 50.5 is error-class.
	if sum.Errors != 1 || sum.Warnings != 3 {
		t.Errorf("errors/warnings = %d/%d, want 1/3", sum.Errors, sum.Warnings)
	}
}

func TestBatchSummaryEntry(t *testing.T) {
	a := NewAggregator(DefaultConfig())
	fill(a, 1, 2)
	sum, _ := a.Flush(FlushTick)
	e := sum.entry(DefaultConfig(), 4, 1234)

	if e.Kind != KindBlockingBatch {
		t.Errorf("kind = %s", e.Kind)
	}
	if !strings.HasPrefix(e.ID, "blocking-batch-") {
		t.Errorf("id = %s", e.ID)
	}
	if want := "Batch of 3 blocking frames: Avg 33.33ms, Max 60.00ms, Min 20.00ms"; e.Message != want {
		t.Errorf("message = %q, want %q", e.Message, want)
	}
	if want := "1 errors (>50ms), 2 warnings (16.67-50ms). Queue depth: 4"; e.Details != want {
		t.Errorf("details = %q, want %q", e.Details, want)
	}
	if lat, ok := e.Latency(); !ok || lat != sum.AvgMs {
		t.Errorf("latency = %v (%t), want %v", lat, ok, sum.AvgMs)
	}
}
