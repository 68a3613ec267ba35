// Command simulate drives a probe session with a synthetic page: a script
// that requests a new animation frame from every frame callback, optional
// periodic jank, and periodic clicks on the tracked element.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nathannam/frame-probe/internal/probe"
)

type options struct {
	frames       int
	frameMs      float64
	jankEvery    int
	jankMs       float64
	clickEvery   int
	clickDelayMs float64
	refreshHz    float64
	loops        int
	verbose      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.IntVar(&o.frames, "frames", 300, "number of refreshes to simulate")
	fs.Float64Var(&o.frameMs, "frame-ms", 2, "work per frame callback in ms")
	fs.IntVar(&o.jankEvery, "jank-every", 0, "inject a long callback every N frames (0 disables)")
	fs.Float64Var(&o.jankMs, "jank-ms", 80, "duration of an injected long callback in ms")
	fs.IntVar(&o.clickEvery, "click-every", 90, "click the tracked element every N frames (0 disables)")
	fs.Float64Var(&o.clickDelayMs, "click-delay-ms", 0, "extra dispatch delay between capture and handler in ms")
	fs.Float64Var(&o.refreshHz, "refresh-hz", 60, "display refresh rate")
	fs.IntVar(&o.loops, "loops", 2, "independent animation loops; the first one carries the jank")
	fs.BoolVar(&o.verbose, "v", false, "log every entry as it is emitted")
	err := fs.Parse(args)
	return o, err
}

func (o options) validate() error {
	if o.frames <= 0 || o.refreshHz <= 0 || o.loops <= 0 {
		return errors.New("frames, refresh-hz and loops must be positive")
	}
	if o.frameMs < 0 || o.jankMs < 0 || o.clickDelayMs < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// logListener prints feed changes as they happen.
type logListener struct {
	logger *slog.Logger
}

func (l logListener) EntryAdded(e probe.LogEntry) {
	attrs := []any{"kind", e.Kind, "message", e.Message}
	if e.Details != "" {
		attrs = append(attrs, "details", e.Details)
	}
	switch e.Severity {
	case probe.SeverityError:
		l.logger.Error("entry", attrs...)
	case probe.SeverityWarning:
		l.logger.Warn("entry", attrs...)
	default:
		l.logger.Info("entry", attrs...)
	}
}

func (l logListener) MetricsUpdated(m probe.Metrics) {
	l.logger.Debug("metrics", "avg_frame_ms", m.AvgFrameTimeMs, "rate", m.FrameCallRatePerSec,
		"queued", m.QueuedFrameCount, "blocking", m.IsBlocking)
}

// result is what a simulation run leaves behind.
type result struct {
	Metrics probe.Metrics    `json:"metrics"`
	Logs    []probe.LogEntry `json:"logs"`
}

func run(o options, logger *slog.Logger) (result, error) {
	clock := &virtualClock{origin: time.Now()}
	sched := newVsync(clock, 1000/o.refreshHz)

	session, err := probe.NewSession(probe.DefaultConfig(),
		probe.WithClock(clock),
		probe.WithListener(logListener{logger: logger}),
		probe.WithLogger(logger),
	)
	if err != nil {
		return result{}, fmt.Errorf("create session: %w", err)
	}
	session.Start()
	raf := session.Intercept(sched.request)
	target := session.Config().TargetID

	frame := 0
	for i := 0; i < o.loops; i++ {
		janky := i == 0
		var loop probe.FrameCallback
		loop = func(float64) {
			cost := o.frameMs
			if janky && o.jankEvery > 0 && frame > 0 && frame%o.jankEvery == 0 {
				cost = o.jankMs
			}
			clock.advance(cost)
			raf(loop)
		}
		raf(loop)
	}

	for frame = 0; frame < o.frames; frame++ {
		clicked := o.clickEvery > 0 && frame > 0 && frame%o.clickEvery == 0
		if clicked {
			session.CaptureClick(probe.ClickEvent{TargetID: target, TargetTag: "BUTTON", ClientX: 120, ClientY: 48, Phase: 1})
		}
		sched.frame()
		if clicked {
			clock.advance(o.clickDelayMs)
			session.HandleClick(probe.ClickEvent{TargetID: target, CurrentTargetTag: "BUTTON", Phase: 2})
		}
	}

	res := result{Metrics: session.Snapshot(), Logs: session.Logs()}
	logger.Info("simulation finished", "session", session.String(), "simulated", time.Duration(clock.ms*float64(time.Millisecond)))
	session.Stop()
	return res, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := o.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = io.Discard
	if o.verbose {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	res, err := run(o, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
