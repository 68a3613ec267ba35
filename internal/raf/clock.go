//go:build js && wasm

package raf

import (
	"syscall/js"
	"time"

	"github.com/nathannam/frame-probe/internal/probe"
)

type performanceClock struct {
	perf js.Value
}

// PerformanceClock reads performance.now() for high-resolution time. It
// falls back to the Go clock when the Performance API is missing.
func PerformanceClock() probe.Clock {
	perf := js.Global().Get("performance")
	if perf.IsUndefined() || perf.Get("now").Type() != js.TypeFunction {
		return probe.SystemClock()
	}
	return performanceClock{perf: perf}
}

func (c performanceClock) Now() float64 { return c.perf.Call("now").Float() }

func (c performanceClock) Wall() time.Time { return time.Now() }
