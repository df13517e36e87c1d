// Package env_vars provides the "env" node, which exposes process
// environment variables to a flow.
package env_vars

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
)

// TypeID is the registry identifier of the node type.
const TypeID = "env"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Environ lists "KEY=value" pairs. Nil uses os.Environ.
	Environ func() []string
}

func (m *Module) environ() map[string]string {
	list := os.Environ
	if m.Environ != nil {
		list = m.Environ
	}
	env := make(map[string]string)
	for _, e := range list() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			env[pair[0]] = pair[1]
		}
	}
	return env
}

// onUpdate emits the variable named by the input, or every variable as an
// object when no name is given. Unset variables come out as null.
func (m *Module) onUpdate(ctx context.Context, n *flow.Node, _ int) error {
	env := m.environ()
	switch name := n.InputValue(0).(type) {
	case nil:
		all := make(map[string]any, len(env))
		for k, v := range env {
			all[k] = v
		}
		return n.SetOutput(ctx, 0, all)
	case string:
		v, ok := env[name]
		if !ok {
			return n.SetOutput(ctx, 0, nil)
		}
		return n.SetOutput(ctx, 0, v)
	default:
		return fmt.Errorf("name must be a string, got %T", name)
	}
}

// NodeType builds the node type definition.
func (m *Module) NodeType() *flow.NodeType {
	return &flow.NodeType{
		ID:            TypeID,
		Version:       "1",
		Title:         "Environment",
		Description:   "Reads an environment variable.",
		Color:         "#7d8c99",
		Inputs:        []flow.PortConfig{{Kind: flow.Data, Label: "name", Hint: "text"}},
		Outputs:       []flow.PortConfig{{Kind: flow.Data, Label: "value"}},
		UpdateOnPlace: true,
		New:           func() flow.Behavior { return flow.BehaviorFunc(m.onUpdate) },
	}
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterType(m.NodeType())
}
