// Package arith provides arithmetic nodes. "add" sums any number of inputs;
// inputs can be added and removed per instance.
package arith

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/values"
	"github.com/zclconf/go-cty/cty"
)

const (
	AddTypeID = "add"
	MulTypeID = "mul"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// AddType sums its inputs. Unset inputs count as zero.
func AddType() *flow.NodeType {
	return fold(AddTypeID, "Add", "Sums its inputs.", cty.Zero, cty.Value.Add)
}

// MulType multiplies its inputs. Unset inputs count as one.
func MulType() *flow.NodeType {
	return fold(MulTypeID, "Multiply", "Multiplies its inputs.", cty.NumberIntVal(1), cty.Value.Multiply)
}

func fold(id, title, desc string, unit cty.Value, op func(acc, x cty.Value) cty.Value) *flow.NodeType {
	return &flow.NodeType{
		ID:           id,
		Version:      "1",
		Title:        title,
		Description:  desc,
		Color:        "#7fba5d",
		DynamicPorts: true,
		Inputs: []flow.PortConfig{
			{Kind: flow.Data, Label: "a", Default: values.Number(unit)},
			{Kind: flow.Data, Label: "b", Default: values.Number(unit)},
		},
		Outputs: []flow.PortConfig{{Kind: flow.Data, Label: "result"}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
				acc := unit
				for i, p := range n.Inputs() {
					v, ok := p.Value()
					if !ok || v == nil {
						continue
					}
					x, err := values.ToNumber(v)
					if err != nil {
						return fmt.Errorf("input %d: %w", i, err)
					}
					acc = op(acc, x)
				}
				return n.SetOutput(ctx, 0, values.Number(acc))
			})
		},
	}
}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterTypes(AddType(), MulType())
}
