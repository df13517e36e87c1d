// Package flow is the execution core: ports, connections, nodes, variables
// and the propagation of values and pulses through a flow graph.
//
// A flow runs in one of two regimes. In data mode a value written to an
// output is pushed into every connected input and the receiving nodes are
// updated breadth-first, each at most once per external trigger. In exec
// mode data writes only refresh caches and nodes run when an exec pulse
// reaches them; pulses are delivered depth-first and synchronously.
//
// Flows are single-writer. All mutation and triggering of one flow must be
// serialized by the host.
package flow
