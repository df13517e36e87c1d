package config

import (
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// SchemaVersion is written into every flow record. Readers accept any
// version and ignore fields they do not know.
const SchemaVersion = 1

// Project is the unified representation of a saved session: function
// definitions first, then ordinary flows.
type Project struct {
	Functions []*Flow
	Flows     []*Flow
}

// Flow is the snapshot of one flow graph.
type Flow struct {
	Name    string
	Version int
	// Mode is the algorithm mode, "data" or "exec". Empty means "data".
	Mode string
	// NextID is the id the flow's counter hands out next.
	NextID      int
	Nodes       []*Node
	Connections []*Connection
	Variables   []*Variable
}

// Node is the snapshot of one node.
type Node struct {
	ID      int
	Type    string
	Version string
	// State is the node's persistable state as a cty object, or cty.NilVal.
	State   cty.Value
	Inputs  []*Port
	Outputs []*Port
	// Subgraph holds the inner flow of a function node.
	Subgraph *Flow
}

// Port is the snapshot of one port.
type Port struct {
	// Kind is "data" or "exec".
	Kind  string
	Label string
	Hint  string
	// Default is the unconnected default of an input, or nil.
	Default *cty.Value
	// Value is the cached value of a data port, or nil when unset.
	Value *cty.Value
}

// Connection records one edge by its endpoints.
type Connection struct {
	From nodeid.PortRef
	To   nodeid.PortRef
}

// Variable records one flow variable.
type Variable struct {
	Name  string
	Value cty.Value
}

// Function looks up a function definition by name.
func (p *Project) Function(name string) (*Flow, bool) {
	for _, f := range p.Functions {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Flow looks up a flow by name.
func (p *Project) Flow(name string) (*Flow, bool) {
	for _, f := range p.Flows {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Node looks up a node record by id.
func (f *Flow) Node(id int) (*Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nil, false
}
