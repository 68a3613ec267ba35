//go:build js && wasm

// Package input wires DOM click delivery for the tracked element into a
// probe session.
package input

import (
	"errors"
	"fmt"
	"log/slog"
	"syscall/js"

	"github.com/nathannam/frame-probe/internal/probe"
)

var (
	// ErrElementNotFound means no element carries the tracked id.
	ErrElementNotFound = errors.New("tracked element not found")
	// ErrUnavailable means the document has no event listener API.
	ErrUnavailable = errors.New("document event API unavailable")
)

// Tracker owns the two click listeners: a capture-phase listener on the
// document and the element's own bubble-phase handler.
type Tracker struct {
	document        js.Value
	element         js.Value
	captureCallback js.Func
	handlerCallback js.Func

	captured int64
	handled  int64
	logger   *slog.Logger
}

// Attach registers both listeners for s's target id.
func Attach(document js.Value, s *probe.Session, logger *slog.Logger) (*Tracker, error) {
	if document.IsUndefined() || document.Get("addEventListener").Type() != js.TypeFunction {
		return nil, ErrUnavailable
	}
	id := s.Config().TargetID
	element := document.Call("getElementById", id)
	if element.IsNull() || element.IsUndefined() {
		return nil, fmt.Errorf("attach click tracker to #%s: %w", id, ErrElementNotFound)
	}

	t := &Tracker{document: document, element: element, logger: logger}

	t.captureCallback = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		if s.CaptureClick(clickEvent(args[0])) {
			t.captured++
		}
		return nil
	})

	t.handlerCallback = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		e := s.HandleClick(clickEvent(args[0]))
		t.handled++
		if e.Severity == probe.SeverityError || e.Severity == probe.SeverityWarning {
			t.logger.Warn("slow click handler", "message", e.Message, "details", e.Details, "handled", t.handled)
		}
		return nil
	})

	document.Call("addEventListener", "click", t.captureCallback, true)
	element.Call("addEventListener", "click", t.handlerCallback)

	t.logger.Info("click tracker attached", "target", id)
	return t, nil
}

// clickEvent copies the fields the probe reads off a DOM MouseEvent.
func clickEvent(ev js.Value) probe.ClickEvent {
	out := probe.ClickEvent{
		ClientX: floatField(ev, "clientX"),
		ClientY: floatField(ev, "clientY"),
	}
	if phase := ev.Get("eventPhase"); phase.Type() == js.TypeNumber {
		out.Phase = phase.Int()
	}
	if target := ev.Get("target"); target.Truthy() {
		out.TargetID = stringField(target, "id")
		out.TargetTag = stringField(target, "tagName")
	}
	if current := ev.Get("currentTarget"); current.Truthy() {
		out.CurrentTargetTag = stringField(current, "tagName")
	}
	return out
}

func floatField(v js.Value, name string) float64 {
	f := v.Get(name)
	if f.Type() != js.TypeNumber {
		return 0
	}
	return f.Float()
}

func stringField(v js.Value, name string) string {
	f := v.Get(name)
	if f.Type() != js.TypeString {
		return ""
	}
	return f.String()
}

// Release removes both listeners and frees their callbacks.
func (t *Tracker) Release() {
	t.logger.Info("click tracker released", "captured", t.captured, "handled", t.handled)

	t.document.Call("removeEventListener", "click", t.captureCallback, true)
	t.element.Call("removeEventListener", "click", t.handlerCallback)
	t.captureCallback.Release()
	t.handlerCallback.Release()
}
