// Package notify carries the notifications a flow emits towards whatever
// presentation or editing surface is observing it.
//
// The engine never depends on a concrete view. Every structural change (node
// placed or removed, connection added or removed, port added or removed), every
// port value write, every variable change and every propagation fault is
// described as an Event and handed to a Sink. Sinks must be safe to call from
// the goroutine that owns the flow and must not call back into the flow.
//
// Provided sinks:
//   - Channel: a buffered, non-blocking hand-off to another goroutine.
//   - Logger: writes each event as a debug line through slog.
//   - Multi: fans an event out to several sinks in order.
//   - socketio.Sink (sub-package): forwards events to a socket.io server.
package notify
