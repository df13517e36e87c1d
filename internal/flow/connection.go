package flow

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/flowcore/internal/notify"
)

// Connection is a directed edge from an output port to an input port.
// Its endpoints are port pointers, so index shifts never invalidate it.
type Connection struct {
	out *Port
	in  *Port
}

func (c *Connection) Out() *Port { return c.out }
func (c *Connection) In() *Port  { return c.in }
func (c *Connection) Kind() Kind { return c.out.Kind() }

func (c *Connection) String() string {
	return fmt.Sprintf("%s -> %s", c.out, c.in)
}

// Connections returns the flow's connections in insertion order.
func (f *Flow) Connections() []*Connection {
	return slices.Clone(f.conns)
}

// Connect links an output to an input. The endpoints may be given in either
// order. Connecting an already linked pair returns the existing connection.
// An input of either kind holds one connection; the connect policy decides
// whether a second one replaces or is rejected. For data connections the
// output's cached value is pushed to the input immediately.
func (f *Flow) Connect(ctx context.Context, a, b *Port) (*Connection, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil port", ErrInvalidEndpoint)
	}
	if a.dir == Input && b.dir == Output {
		a, b = b, a
	}
	out, in := a, b
	switch {
	case out.dir != Output || in.dir != Input:
		return nil, fmt.Errorf("%w: %s and %s have the same direction", ErrInvalidEndpoint, a, b)
	case out.node == nil || in.node == nil || out.node.flow != f || in.node.flow != f:
		return nil, fmt.Errorf("%w: ports do not belong to flow %q", ErrInvalidEndpoint, f.name)
	case out.Kind() != in.Kind():
		return nil, fmt.Errorf("%w: cannot connect %s port %s to %s port %s", ErrInvalidEndpoint, out.Kind(), out, in.Kind(), in)
	case out.node == in.node:
		return nil, fmt.Errorf("%w: %s and %s are on the same node", ErrInvalidEndpoint, out, in)
	}

	for _, c := range out.conns {
		if c.in == in {
			return c, nil
		}
	}

	if len(in.conns) > 0 {
		if f.policy == RejectOnConnect {
			return nil, fmt.Errorf("%w: %s already has a connection", ErrPortOccupied, in)
		}
		for _, old := range slices.Clone(in.conns) {
			f.unlink(ctx, old)
		}
	}

	c := f.link(ctx, out, in)
	if c.Kind() != Data {
		return c, nil
	}
	v, ok := out.Value()
	if !ok {
		return c, nil
	}
	return c, f.propagate(ctx, func(w *wave) {
		f.deliver(ctx, w, in, v)
	})
}

// Disconnect removes a connection. The input keeps its last cached value.
func (f *Flow) Disconnect(ctx context.Context, c *Connection) error {
	if c == nil || !slices.Contains(f.conns, c) {
		return fmt.Errorf("%w: connection is not part of flow %q", ErrInvalidEndpoint, f.name)
	}
	f.unlink(ctx, c)
	return nil
}

// ConnectionBetween returns the connection joining out and in, if any.
func (f *Flow) ConnectionBetween(out, in *Port) (*Connection, bool) {
	for _, c := range f.conns {
		if c.out == out && c.in == in {
			return c, true
		}
	}
	return nil, false
}

func (f *Flow) link(ctx context.Context, out, in *Port) *Connection {
	c := &Connection{out: out, in: in}
	out.conns = append(out.conns, c)
	in.conns = append(in.conns, c)
	f.conns = append(f.conns, c)

	from, to := out.Ref(), in.Ref()
	f.logger(ctx).Debug("Connected.", "from", from.String(), "to", to.String())
	f.emit(ctx, notify.Event{Kind: notify.ConnectionAdded, Port: &from, Peer: &to})
	return c
}

func (f *Flow) unlink(ctx context.Context, c *Connection) {
	c.out.detach(c)
	c.in.detach(c)
	f.conns = slices.DeleteFunc(f.conns, func(x *Connection) bool { return x == c })

	from, to := c.out.Ref(), c.in.Ref()
	f.logger(ctx).Debug("Disconnected.", "from", from.String(), "to", to.String())
	f.emit(ctx, notify.Event{Kind: notify.ConnectionRemoved, Port: &from, Peer: &to})
}
