package probe

// ring is a fixed-capacity circular buffer. Pushing into a full ring
// overwrites the oldest value. Not goroutine-safe; the Session lock covers it.
type ring[T any] struct {
	buf   []T
	head  int // next write position
	count int
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{buf: make([]T, size)}
}

func (r *ring[T]) push(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *ring[T]) len() int { return r.count }

// snapshot returns the contents oldest first.
func (r *ring[T]) snapshot() []T {
	return r.last(r.count)
}

// last returns the n most recent values, oldest first.
func (r *ring[T]) last(n int) []T {
	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}
	out := make([]T, n)
	start := (r.head - n + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

func (r *ring[T]) reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head, r.count = 0, 0
}
