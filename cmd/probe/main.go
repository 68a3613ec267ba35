//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"syscall/js"
	"time"

	"github.com/nathannam/frame-probe/internal/input"
	"github.com/nathannam/frame-probe/internal/jscall"
	"github.com/nathannam/frame-probe/internal/probe"
	"github.com/nathannam/frame-probe/internal/raf"
	"github.com/nathannam/frame-probe/internal/telemetry"
)

// pageConfig is read from window.frameProbeConfig when present.
type pageConfig struct {
	TargetID  string
	Telemetry bool
	AutoStart bool
	ServerURL string
}

func readPageConfig() pageConfig {
	cfg := pageConfig{
		TargetID:  probe.DefaultConfig().TargetID,
		AutoStart: true,
		ServerURL: getCurrentServerURL(),
	}
	obj := js.Global().Get("frameProbeConfig")
	if obj.Type() != js.TypeObject {
		return cfg
	}
	if v := obj.Get("targetId"); v.Type() == js.TypeString && v.String() != "" {
		cfg.TargetID = v.String()
	}
	if v := obj.Get("telemetry"); v.Type() == js.TypeBoolean {
		cfg.Telemetry = v.Bool()
	}
	if v := obj.Get("autoStart"); v.Type() == js.TypeBoolean {
		cfg.AutoStart = v.Bool()
	}
	if v := obj.Get("serverUrl"); v.Type() == js.TypeString && v.String() != "" {
		cfg.ServerURL = v.String()
	}
	return cfg
}

// getCurrentServerURL gets the current server URL from the browser
func getCurrentServerURL() string {
	location := js.Global().Get("location")
	protocol := location.Get("protocol").String()
	hostname := location.Get("hostname").String()
	port := location.Get("port").String()

	if port != "" && port != "80" && port != "443" {
		return protocol + "//" + hostname + ":" + port
	}
	return protocol + "//" + hostname
}

// pageNotifier calls window.frameProbe.onchange, if the dashboard set one,
// after every feed change.
type pageNotifier struct{}

func (pageNotifier) EntryAdded(probe.LogEntry)    { notifyPage() }
func (pageNotifier) MetricsUpdated(probe.Metrics) { notifyPage() }

func notifyPage() {
	fn := js.Global().Get("frameProbe").Get("onchange")
	if fn.Type() == js.TypeFunction {
		jscall.Invoke(fn)
	}
}

// monitor is one mount of the probe: the session plus its two platform
// bindings.
type monitor struct {
	session *probe.Session
	logger  *slog.Logger
	patch   *raf.Patch
	tracker *input.Tracker
	// mounts invalidates element lookups still retrying from an earlier mount.
	mounts int
}

func (m *monitor) start() {
	if m.session.Active() {
		return
	}
	m.session.Start()
	m.mounts++

	patch, err := raf.Install(js.Global(), m.session)
	switch {
	case errors.Is(err, raf.ErrUnavailable):
		m.logger.Warn("requestAnimationFrame unavailable, frame monitoring skipped")
	case err != nil:
		m.logger.Error("failed to intercept requestAnimationFrame", "error", err)
	default:
		m.patch = patch
	}

	if !m.attachTracker() {
		go m.waitForTarget(m.mounts)
	}
}

func (m *monitor) attachTracker() bool {
	tracker, err := input.Attach(js.Global().Get("document"), m.session, m.logger)
	if err != nil {
		if !errors.Is(err, input.ErrElementNotFound) {
			m.logger.Warn("click tracking skipped", "error", err)
			return true
		}
		return false
	}
	m.tracker = tracker
	return true
}

// waitForTarget retries the element lookup for five seconds.
func (m *monitor) waitForTarget(mount int) {
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if mount != m.mounts || !m.session.Active() {
			return
		}
		if m.attachTracker() {
			return
		}
	}
	m.logger.Warn("tracked element not found, click latency disabled", "target", m.session.Config().TargetID)
}

func (m *monitor) stop() {
	if !m.session.Active() {
		return
	}
	if m.tracker != nil {
		m.tracker.Release()
		m.tracker = nil
	}
	if m.patch != nil {
		m.patch.Restore()
		m.patch = nil
	}
	m.session.Stop()
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.Null()
	}
	return string(data)
}

// expose publishes window.frameProbe for the dashboard and the mount toggle.
func (m *monitor) expose() {
	api := js.Global().Get("Object").New()
	api.Set("start", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		m.start()
		return nil
	}))
	api.Set("stop", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		m.stop()
		return nil
	}))
	api.Set("active", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return m.session.Active()
	}))
	api.Set("metrics", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return toJSON(m.session.Snapshot())
	}))
	api.Set("logs", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		return toJSON(m.session.Logs())
	}))
	js.Global().Set("frameProbe", api)
}

func main() {
	startTime := time.Now()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	pc := readPageConfig()
	cfg := probe.DefaultConfig()
	cfg.TargetID = pc.TargetID

	listeners := probe.Listeners{pageNotifier{}}
	var clientTelemetry *telemetry.ClientTelemetry
	if pc.Telemetry {
		clientTelemetry = telemetry.NewClientTelemetry(pc.ServerURL, logger)
		listeners = append(listeners, clientTelemetry)
	}

	session, err := probe.NewSession(cfg,
		probe.WithClock(raf.PerformanceClock()),
		probe.WithListener(listeners),
		probe.WithLogger(logger),
	)
	if err != nil {
		logger.Error("probe disabled", "error", err)
		return
	}

	m := &monitor{session: session, logger: logger}
	m.expose()

	if pc.AutoStart {
		var span *telemetry.ClientSpan
		if clientTelemetry != nil {
			span = clientTelemetry.StartSpan("probe_start")
			span.SetAttribute("target_id", cfg.TargetID)
		}
		m.start()
		if span != nil {
			span.End()
		}
	}

	logger.Info("frame probe ready",
		"target", cfg.TargetID,
		"telemetry", pc.Telemetry,
		"auto_start", pc.AutoStart,
		"init", time.Since(startTime))

	done := make(chan bool)
	<-done
}
