//go:build js && wasm

package raf

import (
	"syscall/js"
	"testing"

	"github.com/nathannam/frame-probe/internal/probe"
)

// newFakeWindow returns an object with a queued requestAnimationFrame and a
// flush method that fires every queued callback.
func newFakeWindow() js.Value {
	return js.Global().Get("Function").New(`
		var w = { queue: {}, next: 0 };
		w.requestAnimationFrame = function(cb) {
			if (typeof cb !== "function") { throw new TypeError("callback is not a function"); }
			w.next++;
			w.queue[w.next] = cb;
			return w.next;
		};
		w.cancelAnimationFrame = function(h) { delete w.queue[h]; };
		w.flush = function(ts) {
			var q = w.queue;
			w.queue = {};
			for (var h in q) { q[h](ts); }
		};
		return w;
	`).Invoke()
}

// captureReported replaces the global reportError for the test and returns
// the messages it received.
func captureReported(t *testing.T) *[]string {
	t.Helper()
	var reported []string
	g := js.Global()
	prev := g.Get("reportError")
	fn := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		reported = append(reported, args[0].Get("message").String())
		return nil
	})
	g.Set("reportError", fn)
	t.Cleanup(func() {
		g.Set("reportError", prev)
		fn.Release()
	})
	return &reported
}

func newPatchedWindow(t *testing.T) (js.Value, *Patch, *probe.Session) {
	t.Helper()
	s, err := probe.NewSession(probe.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.Start()
	w := newFakeWindow()
	p, err := Install(w, s)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	t.Cleanup(p.Restore)
	return w, p, s
}

func TestThrowingCallbackIsReportedAndMonitoringContinues(t *testing.T) {
	reported := captureReported(t)
	w, _, s := newPatchedWindow(t)

	throwing := js.Global().Get("Function").New(`throw new Error("broken frame");`)
	w.Call("requestAnimationFrame", throwing)
	w.Call("flush", 16)

	if len(*reported) != 1 || (*reported)[0] != "broken frame" {
		t.Fatalf("reported = %v, want [broken frame]", *reported)
	}

	ran := 0
	counter := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		ran++
		return nil
	})
	defer counter.Release()
	w.Call("requestAnimationFrame", counter)
	w.Call("flush", 32)

	if ran != 1 {
		t.Errorf("callback after a throwing frame ran %d times, want 1", ran)
	}
	if got := len(s.History()); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestPassThroughErrorIsReported(t *testing.T) {
	reported := captureReported(t)
	w, _, _ := newPatchedWindow(t)

	res := w.Call("requestAnimationFrame", "not a function")
	if !res.IsUndefined() {
		t.Errorf("result = %v, want undefined", res)
	}
	if len(*reported) != 1 {
		t.Errorf("reported %d errors, want 1", len(*reported))
	}
}

func TestForwardsHandleAndTimestamp(t *testing.T) {
	w, _, _ := newPatchedWindow(t)

	var got float64
	cb := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		got = args[0].Float()
		return nil
	})
	defer cb.Release()

	if h := w.Call("requestAnimationFrame", cb).Int(); h != 1 {
		t.Errorf("handle = %d, want 1", h)
	}
	w.Call("flush", 123.5)
	if got != 123.5 {
		t.Errorf("timestamp = %g, want 123.5", got)
	}
}

func TestCancelReleasesPendingFrame(t *testing.T) {
	w, p, _ := newPatchedWindow(t)

	ran := 0
	cb := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		ran++
		return nil
	})
	defer cb.Release()

	for i := 0; i < 5; i++ {
		h := w.Call("requestAnimationFrame", cb)
		w.Call("cancelAnimationFrame", h)
	}
	if got := p.Pending(); got != 0 {
		t.Errorf("pending = %d after cancelling every frame, want 0", got)
	}

	w.Call("requestAnimationFrame", cb)
	if got := p.Pending(); got != 1 {
		t.Errorf("pending = %d, want 1", got)
	}
	w.Call("flush", 0)
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
	if got := p.Pending(); got != 0 {
		t.Errorf("pending = %d after flush, want 0", got)
	}
}

func TestRestorePutsOriginalsBack(t *testing.T) {
	w := newFakeWindow()
	original := w.Get("requestAnimationFrame")
	originalCancel := w.Get("cancelAnimationFrame")

	s, err := probe.NewSession(probe.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	p, err := Install(w, s)
	if err != nil {
		t.Fatalf("Install: %v", err)
	}
	if w.Get("requestAnimationFrame").Equal(original) {
		t.Fatal("requestAnimationFrame was not replaced")
	}
	p.Restore()

	if !w.Get("requestAnimationFrame").Equal(original) {
		t.Error("requestAnimationFrame not restored")
	}
	if !w.Get("cancelAnimationFrame").Equal(originalCancel) {
		t.Error("cancelAnimationFrame not restored")
	}
}

func TestInstallRequiresRequestAnimationFrame(t *testing.T) {
	s, err := probe.NewSession(probe.DefaultConfig())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if _, err := Install(js.Global().Get("Object").New(), s); err != ErrUnavailable {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}
