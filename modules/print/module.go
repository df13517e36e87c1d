// Package print provides the "print" node, which writes whatever reaches its
// input to a writer and to the flow log.
package print

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/values"
)

// TypeID is the registry identifier of the node type.
const TypeID = "print"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives one line per update. Nil means os.Stdout.
	Out io.Writer
}

func (m *Module) NodeType() *flow.NodeType {
	return &flow.NodeType{
		ID:          TypeID,
		Version:     "1",
		Title:       "Print",
		Description: "Prints its input.",
		Color:       "#5d95de",
		Inputs:      []flow.PortConfig{{Kind: flow.Data, Label: "value"}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(m.onUpdate)
		},
	}
}

func (m *Module) onUpdate(ctx context.Context, n *flow.Node, inp int) error {
	v := n.InputValue(0)
	ctxlog.FromContext(ctx).Debug("Printing input", ctxlog.NodeAttr(int(n.ID()), TypeID), "input", inp)

	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	s := values.String(v)
	if _, err := fmt.Fprintln(out, s); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}
	n.Logf("%s", s)
	return nil
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterType(m.NodeType())
}
