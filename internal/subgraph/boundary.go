package subgraph

import (
	"context"
	"errors"
	"reflect"

	"github.com/specialistvlad/flowcore/internal/flow"
)

const (
	InputTypeID  = "subgraph.input"
	OutputTypeID = "subgraph.output"
)

// ErrBoundaryLocked rejects direct port edits on a boundary that belongs to
// an instantiated function; the wrapper node is edited instead.
var ErrBoundaryLocked = errors.New("boundary ports of an instantiated function are edited through its wrapper node")

// InputType is the entry boundary. Its outputs carry the wrapper's inputs
// into the inner flow.
var InputType = &flow.NodeType{
	ID:           InputTypeID,
	Version:      "1",
	Title:        "input",
	Description:  "Entry point of a function definition. Each output becomes an input of the function node.",
	DynamicPorts: true,
	New:          func() flow.Behavior { return &boundary{side: flow.Input} },
}

// OutputType is the exit boundary. Its inputs become the wrapper's outputs.
var OutputType = &flow.NodeType{
	ID:           OutputTypeID,
	Version:      "1",
	Title:        "output",
	Description:  "Exit point of a function definition. Each input becomes an output of the function node.",
	DynamicPorts: true,
	New:          func() flow.Behavior { return &boundary{side: flow.Output} },
}

// IsBoundary reports whether t is one of the two boundary types.
func IsBoundary(t *flow.NodeType) bool {
	return t.ID == InputTypeID || t.ID == OutputTypeID
}

type boundary struct {
	side  flow.Direction
	owner *wrapper
}

func (b *boundary) Update(ctx context.Context, n *flow.Node, inp int) error {
	if b.owner == nil || b.side != flow.Output || inp < 0 {
		return nil
	}
	p := n.Input(inp)
	if p == nil {
		return nil
	}
	if p.Kind() == flow.Data {
		v, _ := p.Value()
		return b.owner.node.SetOutput(ctx, inp, v)
	}
	if err := b.owner.copyOutputs(ctx); err != nil {
		return err
	}
	return b.owner.node.Exec(ctx, inp)
}

func (b *boundary) PortAdded(context.Context, *flow.Node, *flow.Port) error {
	if b.owner != nil && !b.owner.syncing {
		return ErrBoundaryLocked
	}
	return nil
}

func (b *boundary) PortRemoved(context.Context, *flow.Node, flow.Direction, int) error {
	if b.owner != nil && !b.owner.syncing {
		return ErrBoundaryLocked
	}
	return nil
}

// copyOutputs brings wrapper outputs in line with the output boundary's
// cached inputs. Unchanged values are not pushed again.
func (w *wrapper) copyOutputs(ctx context.Context) error {
	if w.out == nil {
		return nil
	}
	var errs []error
	for i, p := range w.out.Inputs() {
		if p.Kind() != flow.Data {
			continue
		}
		v, ok := p.Value()
		if !ok {
			continue
		}
		o := w.node.Output(i)
		if o == nil {
			continue
		}
		if cur, set := o.Value(); set && reflect.DeepEqual(cur, v) {
			continue
		}
		errs = append(errs, w.node.SetOutput(ctx, i, v))
	}
	return errors.Join(errs...)
}
