// Package probe measures main-thread blocking in a page.
//
// A Session wraps the frame-scheduling primitive and the click path of one
// tracked element. Wrapped frame callbacks feed a rolling FrameHistory and a
// blocking-frame batch; a reporter piggybacked on scheduling calls emits a
// summary once per interval; the latency tracker correlates capture-phase
// clicks with the element's own handler. All results flow into a bounded,
// newest-first EventLog and a single Metrics snapshot that a display layer
// reads through Logs and Snapshot.
//
// The package has no platform dependencies. Browser bindings live in
// internal/raf and internal/input.
package probe
