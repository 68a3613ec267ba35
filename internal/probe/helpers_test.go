package probe

import (
	"testing"
	"time"
)

// fakeClock moves the high-resolution and wall readings independently so
// tests can control whether the report window elapses.
type fakeClock struct {
	hires float64
	wall  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{wall: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() float64    { return c.hires }
func (c *fakeClock) Wall() time.Time { return c.wall }

func (c *fakeClock) advance(ms float64) { c.hires += ms }

func (c *fakeClock) advanceWall(d time.Duration) { c.wall = c.wall.Add(d) }

// fakeScheduler stands in for requestAnimationFrame.
type fakeScheduler struct {
	nextHandle int
	queue      []FrameCallback
}

func (f *fakeScheduler) request(cb FrameCallback) int {
	f.nextHandle++
	f.queue = append(f.queue, cb)
	return f.nextHandle
}

// runOne fires the oldest pending callback.
func (f *fakeScheduler) runOne(ts float64) {
	cb := f.queue[0]
	f.queue = f.queue[1:]
	cb(ts)
}

type recordingListener struct {
	entries []LogEntry
	metrics []Metrics
}

func (r *recordingListener) EntryAdded(e LogEntry)    { r.entries = append(r.entries, e) }
func (r *recordingListener) MetricsUpdated(m Metrics) { r.metrics = append(r.metrics, m) }

func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeClock, *fakeScheduler, RequestFunc) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock)}, opts...)
	s, err := NewSession(DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.Start()
	sched := &fakeScheduler{}
	return s, clock, sched, s.Intercept(sched.request)
}

// runFrame schedules one frame at hires 0 and fires it at exactly ms, so
// the measured duration has no accumulated rounding.
func runFrame(clock *fakeClock, sched *fakeScheduler, raf RequestFunc, ms float64) {
	clock.hires = 0
	raf(func(float64) {})
	clock.hires = ms
	sched.runOne(clock.hires)
}

func entriesOfKind(entries []LogEntry, kind Kind) []LogEntry {
	var out []LogEntry
	for _, e := range entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
