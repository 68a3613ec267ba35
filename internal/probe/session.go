package probe

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// FrameCallback receives the platform's native frame timestamp.
type FrameCallback func(timestamp float64)

// RequestFunc is the frame-scheduling primitive: it registers cb for the
// next paint and returns the platform's cancellation handle.
type RequestFunc func(cb FrameCallback) int

// Listener is told about every change to the feed. Calls happen after the
// session lock is released, on the goroutine that caused the change.
type Listener interface {
	EntryAdded(LogEntry)
	MetricsUpdated(Metrics)
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithListener attaches a feed listener.
func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session owns all monitoring state for one mount of the probe. Nothing is
// recorded until Start; after Stop, wrapped callbacks and click handlers
// that are still in flight run normally but leave the state untouched.
type Session struct {
	cfg      Config
	clock    Clock
	listener Listener
	logger   *slog.Logger

	mu         sync.Mutex
	active     bool
	generation uint64
	history    *FrameHistory
	agg        *Aggregator
	log        *EventLog
	metrics    Metrics
	callCount  int
	queued     int
	lastReport time.Time

	pendingClick    float64
	hasPendingClick bool
}

// NewSession builds an inactive session.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		clock:   SystemClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		history: NewFrameHistory(cfg.HistorySize),
		agg:     NewAggregator(cfg),
		log:     NewEventLog(cfg.LogCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the session's configuration.
func (s *Session) Config() Config { return s.cfg }

// Active reports whether the session is recording.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Start resets all state and begins recording. Starting an active session
// is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	s.active = true
	s.generation++
	s.history.Reset()
	s.agg.Reset()
	s.log.Reset()
	s.metrics = Metrics{}
	s.callCount = 0
	s.queued = 0
	s.hasPendingClick = false
	s.lastReport = s.clock.Wall()

	var c changes
	s.emitLocked(&c, LogEntry{
		ID:        newEntryID(KindFrameSchedule),
		Timestamp: s.lastReport.UnixMilli(),
		Kind:      KindFrameSchedule,
		Message:   "Monitoring requestAnimationFrame calls",
	})
	c.metrics = true
	c.snapshot = s.metrics.clone()
	gen := s.generation
	s.mu.Unlock()

	s.logger.Info("probe session started", "generation", gen, "target", s.cfg.TargetID)
	s.notify(c)
}

// Stop ends recording. Callbacks registered before Stop still run but are
// no longer measured.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.generation++
	s.callCount = 0
	s.queued = 0
	s.hasPendingClick = false
	s.mu.Unlock()

	s.logger.Info("probe session stopped")
}

// Snapshot returns a copy of the current metrics.
func (s *Session) Snapshot() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics.clone()
}

// Logs returns the event log, newest first.
func (s *Session) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Entries()
}

// History returns the recorded frame durations in arrival order.
func (s *Session) History() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Values()
}

// QueueDepth is the number of scheduled callbacks that have not run yet.
func (s *Session) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// PendingBlocking is the size of the current blocking batch.
func (s *Session) PendingBlocking() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Len()
}

// Intercept wraps next so every scheduled frame is measured. The returned
// function forwards next's handle unchanged and calls the original callback
// with the native timestamp.
func (s *Session) Intercept(next RequestFunc) RequestFunc {
	return func(cb FrameCallback) int {
		return s.request(next, cb)
	}
}

func (s *Session) request(next RequestFunc, cb FrameCallback) int {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return next(cb)
	}
	s.callCount++
	s.queued++
	gen := s.generation
	start := s.clock.Now()

	var c changes
	if now := s.clock.Wall(); now.Sub(s.lastReport) >= s.cfg.ReportInterval {
		s.reportLocked(&c, now)
	}
	s.mu.Unlock()
	s.notify(c)

	return next(func(timestamp float64) {
		s.frameDone(gen, start)
		cb(timestamp)
	})
}

// frameDone records the elapsed time for a frame scheduled in generation gen.
func (s *Session) frameDone(gen uint64, start float64) {
	s.mu.Lock()
	if !s.active || gen != s.generation {
		s.mu.Unlock()
		return
	}
	frameTime := s.clock.Now() - start
	if s.queued > 0 {
		s.queued--
	}
	s.history.Push(frameTime)

	var c changes
	if frameTime > s.cfg.FrameBudgetMs {
		if sum, ok := s.agg.Record(frameTime); ok {
			s.emitLocked(&c, sum.entry(s.cfg, s.queued, s.clock.Wall().UnixMilli()))
		}
	}
	s.mu.Unlock()
	s.notify(c)
}

// changes collects what a locked section produced so listeners can be
// called after unlocking.
type changes struct {
	entries  []LogEntry
	metrics  bool
	snapshot Metrics
}

func (s *Session) emitLocked(c *changes, e LogEntry) {
	s.log.Add(e)
	c.entries = append(c.entries, e)
}

func (s *Session) notify(c changes) {
	if s.listener == nil {
		return
	}
	for _, e := range c.entries {
		s.listener.EntryAdded(e)
	}
	if c.metrics {
		s.listener.MetricsUpdated(c.snapshot)
	}
}

func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("probe.Session{active=%t queued=%d frames=%d logs=%d}",
		s.active, s.queued, s.history.Len(), s.log.Len())
}

// Listeners fans a feed change out to several listeners in order.
type Listeners []Listener

func (ls Listeners) EntryAdded(e LogEntry) {
	for _, l := range ls {
		l.EntryAdded(e)
	}
}

func (ls Listeners) MetricsUpdated(m Metrics) {
	for _, l := range ls {
		l.MetricsUpdated(m)
	}
}
