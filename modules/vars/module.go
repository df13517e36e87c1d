// Package vars provides the nodes that bridge flow variables and ports.
//
// "get_var" subscribes to the variable named by its input and emits the
// value every time it is set. "set_var" assigns a variable when its exec
// input fires and then continues on its exec output; in data mode a new
// value on its value input assigns as well.
package vars

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
)

const (
	GetTypeID = "get_var"
	SetTypeID = "set_var"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type getter struct {
	name string
}

func (g *getter) Placed(ctx context.Context, n *flow.Node) error {
	return g.subscribe(n)
}

func (g *getter) subscribe(n *flow.Node) error {
	if g.name == "" {
		return nil
	}
	return n.Flow().RegisterVarReceiver(n, g.name, func(ctx context.Context, v any) error {
		return n.SetOutput(ctx, 0, v)
	})
}

func (g *getter) Update(ctx context.Context, n *flow.Node, inp int) error {
	if inp == 0 {
		name, err := nameOf(n.InputValue(0))
		if err != nil {
			return err
		}
		if name != g.name {
			n.Flow().UnregisterVarReceiver(n, g.name)
			g.name = name
			if err := g.subscribe(n); err != nil {
				return err
			}
		}
	}
	if g.name == "" {
		return nil
	}
	v, ok := n.Flow().GetVar(g.name)
	if !ok {
		return nil
	}
	return n.SetOutput(ctx, 0, v)
}

func (g *getter) State() map[string]any {
	return map[string]any{"name": g.name}
}

func (g *getter) SetState(state map[string]any) error {
	name, err := nameOf(state["name"])
	if err != nil {
		return err
	}
	g.name = name
	return nil
}

// Subscribe points a get_var node at another variable without going
// through its input, e.g. while the flow runs in exec mode.
func Subscribe(n *flow.Node, name string) error {
	g, ok := n.Behavior().(*getter)
	if !ok {
		return fmt.Errorf("node %s is not a %s node", n, GetTypeID)
	}
	if n.Flow() == nil {
		return flow.ErrNodeNotFound
	}
	n.Flow().UnregisterVarReceiver(n, g.name)
	g.name = name
	return g.subscribe(n)
}

// Subscription returns the variable a get_var node listens to.
func Subscription(n *flow.Node) string {
	if g, ok := n.Behavior().(*getter); ok {
		return g.name
	}
	return ""
}

func nameOf(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("variable name must be a string, got %T", v)
	}
}

func setVar(ctx context.Context, n *flow.Node, inp int) error {
	f := n.Flow()
	switch inp {
	case -1, 0:
	case 2:
		if f.Mode() != flow.ModeData {
			return nil
		}
	default:
		return nil
	}

	name, err := nameOf(n.InputValue(1))
	if err != nil {
		return err
	}
	if name == "" {
		if inp == 2 {
			return nil
		}
		return fmt.Errorf("variable name is not set")
	}
	if err := f.SetVar(ctx, name, n.InputValue(2)); err != nil {
		return err
	}
	if inp == 2 {
		return nil
	}
	return n.Exec(ctx, 0)
}

func GetType() *flow.NodeType {
	return &flow.NodeType{
		ID:          GetTypeID,
		Version:     "1",
		Title:       "Get Variable",
		Description: "Emits the value of a flow variable whenever it changes.",
		Color:       "#c26be0",
		Inputs:      []flow.PortConfig{{Kind: flow.Data, Label: "name", Hint: "text"}},
		Outputs:     []flow.PortConfig{{Kind: flow.Data, Label: "value"}},
		New:         func() flow.Behavior { return &getter{} },
	}
}

func SetType() *flow.NodeType {
	return &flow.NodeType{
		ID:          SetTypeID,
		Version:     "1",
		Title:       "Set Variable",
		Description: "Assigns a flow variable.",
		Color:       "#c26be0",
		Inputs: []flow.PortConfig{
			{Kind: flow.Exec, Label: "set"},
			{Kind: flow.Data, Label: "name", Hint: "text"},
			{Kind: flow.Data, Label: "value"},
		},
		Outputs: []flow.PortConfig{{Kind: flow.Exec, Label: "then"}},
		New:     func() flow.Behavior { return flow.BehaviorFunc(setVar) },
	}
}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterTypes(GetType(), SetType())
}
