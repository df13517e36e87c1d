// Package subgraph implements reusable function units: a definition flow
// whose boundary nodes describe a signature, and the wrapper node type that
// embeds a private copy of that flow inside another flow.
//
// A definition holds at most one input boundary and one output boundary.
// Output i of the input boundary mirrors wrapper input i; input j of the
// output boundary mirrors wrapper output j. Port edits on a wrapper are
// applied to the boundary of its inner flow in the same step.
package subgraph
