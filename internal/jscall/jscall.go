//go:build js && wasm

// Package jscall calls page-owned JavaScript from Go callbacks without
// letting a thrown exception unwind the Go runtime.
package jscall

import "syscall/js"

// Invoke calls fn with args. If fn throws, the exception is handed back to
// the page through Rethrow and ok is false.
func Invoke(fn js.Value, args ...interface{}) (result js.Value, ok bool) {
	defer recoverJS(&result, &ok)
	return fn.Invoke(args...), true
}

// Call is Invoke for a method on v.
func Call(v js.Value, method string, args ...interface{}) (result js.Value, ok bool) {
	defer recoverJS(&result, &ok)
	return v.Call(method, args...), true
}

func recoverJS(result *js.Value, ok *bool) {
	r := recover()
	if r == nil {
		return
	}
	jsErr, isJS := r.(js.Error)
	if !isJS {
		panic(r)
	}
	Rethrow(jsErr.Value)
	*result, *ok = js.Undefined(), false
}

var thrower js.Value

// Rethrow reports err to the page as an uncaught exception. It uses
// reportError when the host has it and otherwise throws from a timer.
func Rethrow(err js.Value) {
	g := js.Global()
	if report := g.Get("reportError"); report.Type() == js.TypeFunction {
		report.Invoke(err)
		return
	}
	if thrower.IsUndefined() {
		thrower = g.Get("Function").New("e", "return function() { throw e; };")
	}
	g.Call("setTimeout", thrower.Invoke(err), 0)
}
