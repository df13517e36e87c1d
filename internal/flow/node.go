package flow

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/flowcore/internal/nodeid"
)

// Node is one placed instance of a NodeType.
type Node struct {
	id       nodeid.ID
	typ      *NodeType
	flow     *Flow
	behavior Behavior
	inputs   []*Port
	outputs  []*Port

	actions     map[string]Action
	actionNames []string

	updating bool
}

func newNode(t *NodeType, id nodeid.ID) *Node {
	n := &Node{id: id, typ: t, behavior: t.newBehavior()}
	for i, cfg := range t.Inputs {
		n.inputs = append(n.inputs, newPort(n, Input, i, cfg))
	}
	for i, cfg := range t.Outputs {
		n.outputs = append(n.outputs, newPort(n, Output, i, cfg))
	}
	return n
}

func (n *Node) ID() nodeid.ID { return n.id }
func (n *Node) Type() *NodeType { return n.typ }
func (n *Node) Behavior() Behavior { return n.behavior }

// Flow returns the owning flow, or nil once the node has been removed.
func (n *Node) Flow() *Flow { return n.flow }

func (n *Node) Inputs() []*Port { return slices.Clone(n.inputs) }
func (n *Node) Outputs() []*Port { return slices.Clone(n.outputs) }

// Input returns the input at index i, or nil.
func (n *Node) Input(i int) *Port {
	if i < 0 || i >= len(n.inputs) {
		return nil
	}
	return n.inputs[i]
}

// Output returns the output at index i, or nil.
func (n *Node) Output(i int) *Port {
	if i < 0 || i >= len(n.outputs) {
		return nil
	}
	return n.outputs[i]
}

// Port resolves a direction and index.
func (n *Node) Port(dir Direction, i int) *Port {
	if dir == Input {
		return n.Input(i)
	}
	return n.Output(i)
}

func (n *Node) ports(dir Direction) []*Port {
	if dir == Input {
		return n.inputs
	}
	return n.outputs
}

func (n *Node) setPorts(dir Direction, ports []*Port) {
	for i, p := range ports {
		p.index = i
	}
	if dir == Input {
		n.inputs = ports
	} else {
		n.outputs = ports
	}
}

// InputValue returns the cached value of data input i, or nil when the
// input is missing or was never written.
func (n *Node) InputValue(i int) any {
	p := n.Input(i)
	if p == nil {
		return nil
	}
	v, _ := p.Value()
	return v
}

// SetOutput writes v to data output i and pushes it along every
// connection. Called outside a running update it starts a new wave.
func (n *Node) SetOutput(ctx context.Context, i int, v any) error {
	p := n.Output(i)
	if p == nil {
		return fmt.Errorf("%w: %s.out[%d]", ErrPortNotFound, n.id, i)
	}
	if p.Kind() != Data {
		return fmt.Errorf("%w: %s is an exec port", ErrInvalidEndpoint, p)
	}
	if n.flow == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.id)
	}
	return n.flow.writeOutput(ctx, p, v)
}

// Exec fires a pulse on exec output i. Connected nodes run synchronously,
// in connection order, before Exec returns.
func (n *Node) Exec(ctx context.Context, i int) error {
	p := n.Output(i)
	if p == nil {
		return fmt.Errorf("%w: %s.out[%d]", ErrPortNotFound, n.id, i)
	}
	if p.Kind() != Exec {
		return fmt.Errorf("%w: %s is a data port", ErrInvalidEndpoint, p)
	}
	if n.flow == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.id)
	}
	return n.flow.pulse(ctx, p)
}

// Logf appends a line to the owning flow's log.
func (n *Node) Logf(format string, args ...any) {
	if n.flow == nil {
		return
	}
	n.flow.log.Write(fmt.Sprintf("[%s %s] ", n.id, n.typ.ID) + fmt.Sprintf(format, args...))
}

// SetAction exposes a named action. Setting an existing name replaces it.
func (n *Node) SetAction(name string, a Action) {
	if n.actions == nil {
		n.actions = make(map[string]Action)
	}
	if _, ok := n.actions[name]; !ok {
		n.actionNames = append(n.actionNames, name)
	}
	n.actions[name] = a
}

// RemoveAction drops a named action. Unknown names are ignored.
func (n *Node) RemoveAction(name string) {
	if _, ok := n.actions[name]; !ok {
		return
	}
	delete(n.actions, name)
	n.actionNames = slices.DeleteFunc(n.actionNames, func(s string) bool { return s == name })
}

// Actions lists action names in the order they were added.
func (n *Node) Actions() []string {
	return slices.Clone(n.actionNames)
}

// RunAction runs a named action as an external trigger.
func (n *Node) RunAction(ctx context.Context, name string) error {
	a, ok := n.actions[name]
	if !ok {
		return fmt.Errorf("node %s has no action %q", n.id, name)
	}
	if n.flow == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, n.id)
	}
	return n.flow.propagate(ctx, func(w *wave) {
		n.flow.invoke(ctx, w, n, -1, func(ctx context.Context) error { return a(ctx, n) })
	})
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.id, n.typ.ID)
}
