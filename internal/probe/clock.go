package probe

import "time"

// Clock supplies the two time bases the probe needs: a monotonic
// high-resolution reading in ms (performance.now in a browser) for frame
// and click latency, and wall-clock time for entry timestamps and the
// report window.
type Clock interface {
	Now() float64
	Wall() time.Time
}

type systemClock struct {
	origin time.Time
}

// SystemClock returns a Clock whose high-resolution reading counts ms since
// the call.
func SystemClock() Clock {
	return systemClock{origin: time.Now()}
}

func (c systemClock) Now() float64 {
	return float64(time.Since(c.origin)) / float64(time.Millisecond)
}

func (c systemClock) Wall() time.Time { return time.Now() }
