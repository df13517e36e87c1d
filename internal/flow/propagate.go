package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/specialistvlad/flowcore/internal/notify"
)

type job struct {
	node *Node
	inp  int
}

// wave is the unit of propagation started by one external trigger. Every
// node runs at most once per wave through data propagation.
type wave struct {
	visited map[nodeid.ID]bool
	queue   []job
	// pending buffers the data updates scheduled by the running invocation.
	// They are committed only if it succeeds.
	pending *[]job
	errs    []error
}

// propagate runs fn inside the current wave, or starts a new wave, runs fn
// and drains it. Only the outermost call reports behavior errors.
func (f *Flow) propagate(ctx context.Context, fn func(w *wave)) error {
	if f.wave != nil {
		fn(f.wave)
		return nil
	}
	w := &wave{visited: make(map[nodeid.ID]bool)}
	f.wave = w
	defer func() { f.wave = nil }()

	fn(w)
	for len(w.queue) > 0 {
		if err := ctx.Err(); err != nil {
			f.logger(ctx).Warn("Propagation cancelled.", "pending", len(w.queue), ctxlog.ErrAttr(err))
			w.errs = append(w.errs, err)
			break
		}
		j := w.queue[0]
		w.queue = w.queue[1:]
		f.invoke(ctx, w, j.node, j.inp, j.node.update(j.inp))
	}
	return errors.Join(w.errs...)
}

func (n *Node) update(inp int) func(context.Context) error {
	return func(ctx context.Context) error {
		return n.behavior.Update(ctx, n, inp)
	}
}

// invoke runs call on behalf of n. A node that is already mid-update is not
// re-entered. Faults are recovered and recorded on the wave.
func (f *Flow) invoke(ctx context.Context, w *wave, n *Node, inp int, call func(context.Context) error) {
	if n.flow != f {
		return
	}
	if n.updating {
		f.logger(ctx).Debug("Re-entrant update dropped.", ctxlog.NodeAttr(int(n.id), n.typ.ID), "input", inp)
		return
	}

	n.updating = true
	parent := w.pending
	var scheduled []job
	w.pending = &scheduled

	err := guard(ctx, call)

	w.pending = parent
	n.updating = false

	if err != nil {
		for _, j := range scheduled {
			delete(w.visited, j.node.id)
		}
		f.fail(ctx, w, n, inp, err)
		return
	}
	w.queue = append(w.queue, scheduled...)
}

func guard(ctx context.Context, call func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return call(ctx)
}

func (f *Flow) fail(ctx context.Context, w *wave, n *Node, inp int, cause error) {
	err := &NodeBehaviorError{Flow: f.name, NodeID: n.id, NodeType: n.typ.ID, Input: inp, Cause: cause}
	w.errs = append(w.errs, err)
	f.logger(ctx).Error("Node update failed.", ctxlog.NodeAttr(int(n.id), n.typ.ID), "input", inp, ctxlog.ErrAttr(cause))
	f.emit(ctx, notify.Event{Kind: notify.PropagationError, Node: n.id, NodeType: n.typ.ID, Err: err})
}

// enqueue schedules a data-triggered update unless n already ran or is
// already scheduled in this wave.
func (f *Flow) enqueue(ctx context.Context, w *wave, n *Node, inp int) {
	if w.visited[n.id] {
		f.logger(ctx).Debug("Node already updated in this wave.", ctxlog.NodeAttr(int(n.id), n.typ.ID))
		return
	}
	w.visited[n.id] = true
	j := job{node: n, inp: inp}
	if w.pending != nil {
		*w.pending = append(*w.pending, j)
		return
	}
	w.queue = append(w.queue, j)
}

// deliver writes v into a data input and, in data mode, schedules its node.
func (f *Flow) deliver(ctx context.Context, w *wave, in *Port, v any) {
	in.store(v)
	ref := in.Ref()
	f.emit(ctx, notify.Event{Kind: notify.PortValueChanged, Port: &ref, Value: v})
	if f.mode == ModeData {
		f.enqueue(ctx, w, in.node, in.index)
	}
}

func (f *Flow) writeOutput(ctx context.Context, out *Port, v any) error {
	out.store(v)
	ref := out.Ref()
	f.emit(ctx, notify.Event{Kind: notify.PortValueChanged, Port: &ref, Value: v})
	if len(out.conns) == 0 {
		return nil
	}
	return f.propagate(ctx, func(w *wave) {
		for _, c := range out.Connections() {
			f.deliver(ctx, w, c.in, v)
		}
	})
}

// pulse fires every connection of an exec output depth-first, in the order
// the connections were made.
func (f *Flow) pulse(ctx context.Context, out *Port) error {
	if len(out.conns) == 0 {
		return nil
	}
	return f.propagate(ctx, func(w *wave) {
		for _, c := range out.Connections() {
			t := c.in.node
			f.invoke(ctx, w, t, c.in.index, t.update(c.in.index))
		}
	})
}

// SetValue writes v to a data port from outside the graph. Writing an input
// updates its node in data mode; writing an output propagates it.
func (f *Flow) SetValue(ctx context.Context, p *Port, v any) error {
	if p == nil || p.node == nil || p.node.flow != f {
		return fmt.Errorf("%w: port does not belong to flow %q", ErrInvalidEndpoint, f.name)
	}
	if p.Kind() != Data {
		return fmt.Errorf("%w: exec port %s holds no value", ErrInvalidEndpoint, p)
	}
	if p.dir == Output {
		return f.writeOutput(ctx, p, v)
	}
	return f.propagate(ctx, func(w *wave) {
		f.deliver(ctx, w, p, v)
	})
}

// Trigger runs n as if input inp had fired; -1 means no particular input.
// It starts a wave and returns once the wave has drained. Behavior faults
// are joined into the returned error.
func (f *Flow) Trigger(ctx context.Context, n *Node, inp int) error {
	if n == nil || n.flow != f {
		return ErrNodeNotFound
	}
	if inp < -1 || inp >= len(n.inputs) {
		return fmt.Errorf("%w: %s.in[%d]", ErrPortNotFound, n.id, inp)
	}
	return f.propagate(ctx, func(w *wave) {
		w.visited[n.id] = true
		f.invoke(ctx, w, n, inp, n.update(inp))
	})
}

// Update runs n once without a triggering input.
func (f *Flow) Update(ctx context.Context, n *Node) error {
	return f.Trigger(ctx, n, -1)
}

// Running reports whether a wave is in progress.
func (f *Flow) Running() bool {
	return f.wave != nil
}
