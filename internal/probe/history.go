package probe

// FrameHistory is the rolling window of recent frame durations in ms.
type FrameHistory struct {
	r *ring[float64]
}

// NewFrameHistory returns an empty window holding at most size durations.
func NewFrameHistory(size int) *FrameHistory {
	if size <= 0 {
		size = DefaultConfig().HistorySize
	}
	return &FrameHistory{r: newRing[float64](size)}
}

// Push appends a duration, evicting the oldest when full.
func (h *FrameHistory) Push(ms float64) { h.r.push(ms) }

func (h *FrameHistory) Len() int { return h.r.len() }

// Values returns the window in arrival order.
func (h *FrameHistory) Values() []float64 { return h.r.snapshot() }

// Last returns the n most recent durations in arrival order.
func (h *FrameHistory) Last(n int) []float64 { return h.r.last(n) }

// Average is the mean of the window, or 0 when it is empty.
func (h *FrameHistory) Average() float64 {
	vals := h.r.snapshot()
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func (h *FrameHistory) Reset() { h.r.reset() }
