// Package session owns the process-wide state of the engine: the node type
// registry and the set of live flows and function definitions.
//
// Every flow gets its own runner.Runner; callers mutate and trigger a flow
// only through Session.Do. Function definitions are flows too. After each
// Do on a definition the function's snapshot is committed, and new
// function nodes are built from that snapshot.
package session
