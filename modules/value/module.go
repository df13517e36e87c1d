// Package value provides the "value" node, a persisted constant. Writing its
// input replaces the constant; every update re-emits it.
package value

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
)

const TypeID = "value"

// Module implements the registry.Module interface for this package.
type Module struct{}

type constant struct {
	v any
}

func (c *constant) Update(ctx context.Context, n *flow.Node, inp int) error {
	if inp == 0 {
		c.v = n.InputValue(0)
	}
	return n.SetOutput(ctx, 0, c.v)
}

func (c *constant) State() map[string]any {
	return map[string]any{"value": c.v}
}

func (c *constant) SetState(state map[string]any) error {
	c.v = state["value"]
	return nil
}

// Set replaces the constant and emits it.
func Set(ctx context.Context, n *flow.Node, v any) error {
	c, ok := n.Behavior().(*constant)
	if !ok {
		return fmt.Errorf("node %s is not a value node", n)
	}
	if n.Flow() == nil {
		return flow.ErrNodeNotFound
	}
	c.v = v
	return n.Flow().Update(ctx, n)
}

func NodeType() *flow.NodeType {
	return &flow.NodeType{
		ID:            TypeID,
		Version:       "1",
		Title:         "Value",
		Description:   "Holds a constant and emits it on every update.",
		Color:         "#a3a3a3",
		Inputs:        []flow.PortConfig{{Kind: flow.Data, Label: "set"}},
		Outputs:       []flow.PortConfig{{Kind: flow.Data, Label: "value"}},
		UpdateOnPlace: true,
		New:           func() flow.Behavior { return &constant{} },
	}
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterType(NodeType())
}
