//go:build js && wasm

// Package raf swaps a window's requestAnimationFrame for a measured one.
package raf

import (
	"errors"
	"sync"
	"syscall/js"

	"github.com/nathannam/frame-probe/internal/jscall"
	"github.com/nathannam/frame-probe/internal/probe"
)

// ErrUnavailable means the target has no requestAnimationFrame to wrap.
var ErrUnavailable = errors.New("requestAnimationFrame is not available")

// Patch is an installed interception. It owns the references to the
// original primitives.
type Patch struct {
	target         js.Value
	original       js.Value
	originalCancel js.Value
	wrapper        js.Func
	cancelWrapper  js.Func
	restored       bool

	mu sync.Mutex
	// pending maps native handles to the per-frame funcs not yet fired.
	pending map[int]js.Func
}

// Install replaces target.requestAnimationFrame with a function that routes
// every call through s.Intercept. cancelAnimationFrame is wrapped too, when
// present, so cancelled frames free their Go callbacks.
func Install(target js.Value, s *probe.Session) (*Patch, error) {
	if target.IsUndefined() || target.IsNull() {
		return nil, ErrUnavailable
	}
	original := target.Get("requestAnimationFrame")
	if original.Type() != js.TypeFunction {
		return nil, ErrUnavailable
	}

	p := &Patch{
		target:   target,
		original: original,
		pending:  make(map[int]js.Func),
	}
	intercept := s.Intercept(p.schedule)

	p.wrapper = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if p.restored || len(args) == 0 || args[0].Type() != js.TypeFunction {
			return p.passThrough(p.original, args)
		}
		callback := args[0]
		return intercept(func(timestamp float64) {
			jscall.Invoke(callback, timestamp)
		})
	})
	target.Set("requestAnimationFrame", p.wrapper)

	if cancel := target.Get("cancelAnimationFrame"); cancel.Type() == js.TypeFunction {
		p.originalCancel = cancel
		p.cancelWrapper = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
			if len(args) > 0 && args[0].Type() == js.TypeNumber {
				p.release(args[0].Int())
			}
			return p.passThrough(p.originalCancel, args)
		})
		target.Set("cancelAnimationFrame", p.cancelWrapper)
	}
	return p, nil
}

// schedule registers cb with the original primitive. The per-frame js.Func
// is released once it has fired or been cancelled.
func (p *Patch) schedule(cb probe.FrameCallback) int {
	var (
		fn     js.Func
		handle int
	)
	fn = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		p.release(handle)
		var ts float64
		if len(args) > 0 {
			ts = args[0].Float()
		}
		cb(ts)
		return nil
	})
	res, ok := jscall.Call(p.original, "call", p.target, fn)
	if !ok || res.Type() != js.TypeNumber {
		fn.Release()
		return 0
	}
	handle = res.Int()

	p.mu.Lock()
	p.pending[handle] = fn
	p.mu.Unlock()
	return handle
}

// release frees the func registered under handle, if it is still pending.
func (p *Patch) release(handle int) {
	p.mu.Lock()
	fn, ok := p.pending[handle]
	delete(p.pending, handle)
	p.mu.Unlock()
	if ok {
		fn.Release()
	}
}

// Pending is the number of scheduled frames whose Go callback is still held.
func (p *Patch) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Patch) passThrough(fn js.Value, args []js.Value) interface{} {
	forwarded := make([]interface{}, 0, len(args)+1)
	forwarded = append(forwarded, p.target)
	for _, a := range args {
		forwarded = append(forwarded, a)
	}
	res, _ := jscall.Call(fn, "call", forwarded...)
	return res
}

// Restore puts the original primitives back unless another script has
// replaced them since. The wrappers stay callable for scripts that kept a
// reference to them and forward straight to the originals.
func (p *Patch) Restore() {
	if p.restored {
		return
	}
	p.restored = true
	if p.target.Get("requestAnimationFrame").Equal(p.wrapper.Value) {
		p.target.Set("requestAnimationFrame", p.original)
	}
	if !p.originalCancel.IsUndefined() && p.target.Get("cancelAnimationFrame").Equal(p.cancelWrapper.Value) {
		p.target.Set("cancelAnimationFrame", p.originalCancel)
	}
}
