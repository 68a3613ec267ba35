package main

import (
	"time"

	"github.com/nathannam/frame-probe/internal/probe"
)

// virtualClock is a deterministic probe.Clock driven by the simulator.
type virtualClock struct {
	origin time.Time
	ms     float64
}

func (c *virtualClock) Now() float64 { return c.ms }

func (c *virtualClock) Wall() time.Time {
	return c.origin.Add(time.Duration(c.ms * float64(time.Millisecond)))
}

func (c *virtualClock) advance(ms float64) { c.ms += ms }

// vsync is a stand-in for the browser's frame scheduler: callbacks requested
// during one frame run at the next refresh boundary.
type vsync struct {
	clock    *virtualClock
	periodMs float64
	handle   int
	pending  []probe.FrameCallback
}

func newVsync(clock *virtualClock, periodMs float64) *vsync {
	return &vsync{clock: clock, periodMs: periodMs}
}

func (v *vsync) request(cb probe.FrameCallback) int {
	v.handle++
	v.pending = append(v.pending, cb)
	return v.handle
}

// frame runs every callback queued before this refresh, then moves the
// clock to the next boundary. Work that overruns the period pushes the
// boundary out by whole periods.
func (v *vsync) frame() {
	start := v.clock.ms
	batch := v.pending
	v.pending = nil
	for _, cb := range batch {
		cb(v.clock.ms)
	}

	elapsed := v.clock.ms - start
	periods := int(elapsed/v.periodMs) + 1
	v.clock.ms = start + float64(periods)*v.periodMs
}
