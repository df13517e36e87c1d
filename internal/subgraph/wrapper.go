package subgraph

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/flow"
)

// wrapper is the behavior of a function node. It owns a private inner flow
// and relays pulses and values across the boundary nodes.
type wrapper struct {
	fn      *Function
	node    *flow.Node
	inner   *flow.Flow
	in, out *flow.Node
	syncing bool
}

var (
	_ flow.Placer         = (*wrapper)(nil)
	_ flow.PortHook       = (*wrapper)(nil)
	_ flow.SubgraphHolder = (*wrapper)(nil)
)

func (w *wrapper) Inner() *flow.Flow { return w.inner }

// Update forwards input inp into the inner flow. An exec input first
// brings the inner boundary's data in line with the node's inputs, then
// fires the matching boundary pulse. Without a specific input all data
// inputs are synchronized.
func (w *wrapper) Update(ctx context.Context, n *flow.Node, inp int) error {
	if w.inner == nil || w.in == nil {
		return nil
	}
	var err error
	switch p := n.Input(inp); {
	case p == nil:
		err = w.syncInputs(ctx, n)
	case p.Kind() == flow.Exec:
		if err = w.syncInputs(ctx, n); err == nil {
			err = w.in.Exec(ctx, inp)
		}
	default:
		v, _ := p.Value()
		err = w.forward(ctx, inp, v)
	}
	return errors.Join(err, w.copyOutputs(ctx))
}

// syncInputs forwards every cached data input whose value the inner
// boundary does not hold yet.
func (w *wrapper) syncInputs(ctx context.Context, n *flow.Node) error {
	var errs []error
	for i, p := range n.Inputs() {
		if p.Kind() != flow.Data {
			continue
		}
		v, ok := p.Value()
		if !ok {
			continue
		}
		if b := w.in.Output(i); b != nil {
			if cur, set := b.Value(); set && reflect.DeepEqual(cur, v) {
				continue
			}
		}
		errs = append(errs, w.forward(ctx, i, v))
	}
	return errors.Join(errs...)
}

func (w *wrapper) forward(ctx context.Context, i int, v any) error {
	p := w.in.Output(i)
	if p == nil {
		return fmt.Errorf("function %q: input boundary has no port %d", w.fn.Name(), i)
	}
	return w.inner.SetValue(ctx, p, v)
}

// Placed builds the inner flow for a freshly placed node and gives the node
// the ports of the function's signature. Restored nodes already have both.
func (w *wrapper) Placed(ctx context.Context, n *flow.Node) error {
	w.node = n
	if w.inner != nil {
		return nil
	}
	inner, err := w.fn.Instantiate(ctx)
	if err != nil {
		return err
	}
	w.attach(inner)
	return w.syncPorts(ctx, n)
}

func (w *wrapper) RestoreInner(ctx context.Context, rec *config.Flow, types flow.TypeResolver, conv config.Converter) error {
	inner, err := flow.Deserialize(withFrame(ctx, w.fn.Name()), rec, types, conv)
	if err != nil {
		return err
	}
	w.attach(inner)
	return nil
}

func (w *wrapper) attach(inner *flow.Flow) {
	w.inner = inner
	w.in, w.out = Boundaries(inner)
	for _, b := range []*flow.Node{w.in, w.out} {
		if b == nil {
			continue
		}
		if bb, ok := b.Behavior().(*boundary); ok {
			bb.owner = w
		}
	}
}

// syncPorts adds the signature ports to a node that has none yet.
func (w *wrapper) syncPorts(ctx context.Context, n *flow.Node) error {
	var want [2][]*flow.Port
	if w.in != nil {
		want[0] = w.in.Outputs()
	}
	if w.out != nil {
		want[1] = w.out.Inputs()
	}
	have := [2]int{len(n.Inputs()), len(n.Outputs())}
	if have[0]+have[1] > 0 {
		if have[0] != len(want[0]) || have[1] != len(want[1]) {
			return fmt.Errorf("function %q: node ports do not match the signature", w.fn.Name())
		}
		return nil
	}

	w.syncing = true
	defer func() { w.syncing = false }()
	for i, dir := range []flow.Direction{flow.Input, flow.Output} {
		for _, p := range want[i] {
			cfg := p.Config()
			if dir == flow.Output {
				cfg.Default = nil
			}
			if _, err := n.Flow().AddPort(ctx, n, dir, -1, cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// PortAdded mirrors a new wrapper port onto the matching boundary.
func (w *wrapper) PortAdded(ctx context.Context, n *flow.Node, p *flow.Port) error {
	if w.syncing {
		return nil
	}
	b, dir := w.boundaryFor(p.Direction())
	if b == nil {
		return fmt.Errorf("function %q has no %s boundary", w.fn.Name(), p.Direction())
	}
	w.syncing = true
	defer func() { w.syncing = false }()
	_, err := w.inner.AddPort(ctx, b, dir, p.Index(), p.Config())
	return err
}

// PortRemoved mirrors a port removal onto the matching boundary.
func (w *wrapper) PortRemoved(ctx context.Context, n *flow.Node, d flow.Direction, index int) error {
	if w.syncing {
		return nil
	}
	b, dir := w.boundaryFor(d)
	if b == nil {
		return fmt.Errorf("function %q has no %s boundary", w.fn.Name(), d)
	}
	w.syncing = true
	defer func() { w.syncing = false }()
	return w.inner.RemovePort(ctx, b, dir, index)
}

// boundaryFor maps a wrapper port direction to the boundary node and the
// direction of its mirrored ports.
func (w *wrapper) boundaryFor(d flow.Direction) (*flow.Node, flow.Direction) {
	if d == flow.Input {
		return w.in, flow.Output
	}
	return w.out, flow.Input
}
