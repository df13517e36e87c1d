package flow

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/specialistvlad/flowcore/internal/notify"
)

// Mode selects the propagation regime of a flow.
type Mode int

const (
	// ModeData lets every data change trigger downstream updates.
	ModeData Mode = iota
	// ModeExec refreshes data caches without triggering updates; only exec
	// pulses run nodes.
	ModeExec
)

func (m Mode) String() string {
	if m == ModeExec {
		return "exec"
	}
	return "data"
}

// ParseMode is the inverse of Mode.String. The empty string means ModeData.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "data":
		return ModeData, nil
	case "exec":
		return ModeExec, nil
	default:
		return ModeData, fmt.Errorf("unknown algorithm mode %q", s)
	}
}

// ConnectPolicy decides what happens when an already connected input
// receives a new connection.
type ConnectPolicy int

const (
	// ReplaceOnConnect drops the existing connection first.
	ReplaceOnConnect ConnectPolicy = iota
	// RejectOnConnect fails with ErrPortOccupied.
	RejectOnConnect
)

// PlacementCheck vets a node type before it is placed into a flow.
type PlacementCheck func(ctx context.Context, t *NodeType) error

// Option configures a Flow.
type Option func(*Flow)

func WithSink(s notify.Sink) Option { return func(f *Flow) { f.sink = s } }

func WithMode(m Mode) Option { return func(f *Flow) { f.mode = m } }

func WithConnectPolicy(p ConnectPolicy) Option { return func(f *Flow) { f.policy = p } }

func WithPlacementCheck(c PlacementCheck) Option { return func(f *Flow) { f.check = c } }

// Flow is a directed graph of nodes and connections with its own variables,
// node id counter and propagation regime. A Flow is not safe for concurrent
// use; hosts serialize access, see the runner package.
type Flow struct {
	name   string
	uid    string
	mode   Mode
	policy ConnectPolicy
	check  PlacementCheck
	sink   notify.Sink

	ids   nodeid.Counter
	nodes map[nodeid.ID]*Node
	order []*Node
	conns []*Connection

	vars     map[string]any
	varOrder []string
	subs     map[string][]subscription

	wave *wave
	log  *Log
}

// New creates an empty flow.
func New(name string, opts ...Option) *Flow {
	f := &Flow{
		name:  name,
		uid:   uuid.NewString(),
		sink:  notify.Discard,
		nodes: make(map[nodeid.ID]*Node),
		vars:  make(map[string]any),
		subs:  make(map[string][]subscription),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.sink == nil {
		f.sink = notify.Discard
	}
	f.log = NewLog(name)
	return f
}

func (f *Flow) Name() string { return f.name }
func (f *Flow) UID() string { return f.uid }
func (f *Flow) Mode() Mode { return f.mode }
func (f *Flow) Policy() ConnectPolicy { return f.policy }
func (f *Flow) Log() *Log { return f.log }

// SetName renames the flow. Uniqueness is the host's concern.
func (f *Flow) SetName(name string) {
	f.name = name
	f.log.SetTitle(name)
}

// SetSink replaces the notification sink. Nil discards notifications.
func (f *Flow) SetSink(s notify.Sink) {
	if s == nil {
		s = notify.Discard
	}
	f.sink = s
}

// SetPlacementCheck replaces the placement check.
func (f *Flow) SetPlacementCheck(c PlacementCheck) {
	f.check = c
}

// SetMode switches the propagation regime. Caches are kept.
func (f *Flow) SetMode(ctx context.Context, m Mode) {
	if f.mode == m {
		return
	}
	f.mode = m
	ctxlog.FromContext(ctx).Debug("Algorithm mode changed.", ctxlog.FlowAttr(f.name), "mode", m.String())
	f.emit(ctx, notify.Event{Kind: notify.ModeChanged, Value: m.String()})
}

// Nodes returns the nodes in placement order.
func (f *Flow) Nodes() []*Node {
	return slices.Clone(f.order)
}

// Node looks a node up by id.
func (f *Flow) Node(id nodeid.ID) (*Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// NextID returns the id the next placed node will receive.
func (f *Flow) NextID() nodeid.ID {
	return f.ids.Peek()
}

// ResolvePort looks up the port a reference points at.
func (f *Flow) ResolvePort(ref nodeid.PortRef) (*Port, bool) {
	n, ok := f.nodes[ref.Node]
	if !ok {
		return nil, false
	}
	p := n.Port(ref.Dir, ref.Index)
	return p, p != nil
}

// AddNode instantiates t with a fresh id and places it into the flow.
func (f *Flow) AddNode(ctx context.Context, t *NodeType) (*Node, error) {
	if f.check != nil {
		if err := f.check(ctx, t); err != nil {
			return nil, err
		}
	}
	n := newNode(t, f.ids.Peek())
	if err := f.insert(ctx, n); err != nil {
		return nil, err
	}
	f.ids.Next()

	if t.UpdateOnPlace {
		if err := f.Update(ctx, n); err != nil {
			return n, err
		}
	}
	return n, nil
}

// insert registers n and runs its placement hook. A failing hook leaves the
// flow unchanged.
func (f *Flow) insert(ctx context.Context, n *Node) error {
	if _, dup := f.nodes[n.id]; dup {
		return fmt.Errorf("node id %s already in use in flow %q", n.id, f.name)
	}
	n.flow = f
	f.nodes[n.id] = n
	f.order = append(f.order, n)

	if p, ok := n.behavior.(Placer); ok {
		if err := p.Placed(ctx, n); err != nil {
			f.unregisterNode(n)
			delete(f.nodes, n.id)
			f.order = f.order[:len(f.order)-1]
			n.flow = nil
			return fmt.Errorf("placing %s: %w", n, err)
		}
	}

	ctxlog.FromContext(ctx).Debug("Node placed.", ctxlog.FlowAttr(f.name), ctxlog.NodeAttr(int(n.id), n.typ.ID))
	f.emit(ctx, notify.Event{Kind: notify.NodeAdded, Node: n.id, NodeType: n.typ.ID})
	return nil
}

// RemoveNode disconnects n, drops its variable subscriptions and removes it.
func (f *Flow) RemoveNode(ctx context.Context, n *Node) error {
	if n == nil || n.flow != f {
		return ErrNodeNotFound
	}
	for _, ports := range [][]*Port{n.inputs, n.outputs} {
		for _, p := range ports {
			for _, c := range slices.Clone(p.conns) {
				f.unlink(ctx, c)
			}
		}
	}
	f.unregisterNode(n)
	if r, ok := n.behavior.(Remover); ok {
		r.Removed(ctx, n)
	}

	delete(f.nodes, n.id)
	f.order = slices.DeleteFunc(f.order, func(x *Node) bool { return x == n })
	n.flow = nil

	ctxlog.FromContext(ctx).Debug("Node removed.", ctxlog.FlowAttr(f.name), ctxlog.NodeAttr(int(n.id), n.typ.ID))
	f.emit(ctx, notify.Event{Kind: notify.NodeRemoved, Node: n.id, NodeType: n.typ.ID})
	return nil
}

// AddPort inserts a port at index; -1 appends. Later ports shift up.
func (f *Flow) AddPort(ctx context.Context, n *Node, dir Direction, index int, cfg PortConfig) (*Port, error) {
	if n == nil || n.flow != f {
		return nil, ErrNodeNotFound
	}
	if !n.typ.DynamicPorts {
		return nil, fmt.Errorf("%w: %s", ErrStaticPorts, n.typ.ID)
	}
	ports := n.ports(dir)
	if index < 0 {
		index = len(ports)
	}
	if index > len(ports) {
		return nil, fmt.Errorf("%w: %s.%s[%d]", ErrPortNotFound, n.id, dir, index)
	}

	p := newPort(n, dir, index, cfg)
	n.setPorts(dir, slices.Insert(slices.Clone(ports), index, p))

	if h, ok := n.behavior.(PortHook); ok {
		if err := h.PortAdded(ctx, n, p); err != nil {
			n.setPorts(dir, ports)
			return nil, err
		}
	}

	ref := p.Ref()
	f.emit(ctx, notify.Event{Kind: notify.PortAdded, Port: &ref})
	return p, nil
}

// RemovePort disconnects and removes the port at index. Later ports shift
// down and their connections keep pointing at them.
func (f *Flow) RemovePort(ctx context.Context, n *Node, dir Direction, index int) error {
	if n == nil || n.flow != f {
		return ErrNodeNotFound
	}
	if !n.typ.DynamicPorts {
		return fmt.Errorf("%w: %s", ErrStaticPorts, n.typ.ID)
	}
	ports := n.ports(dir)
	if index < 0 || index >= len(ports) {
		return fmt.Errorf("%w: %s.%s[%d]", ErrPortNotFound, n.id, dir, index)
	}
	if h, ok := n.behavior.(PortHook); ok {
		if err := h.PortRemoved(ctx, n, dir, index); err != nil {
			return err
		}
	}

	p := ports[index]
	ref := p.Ref()
	for _, c := range slices.Clone(p.conns) {
		f.unlink(ctx, c)
	}
	n.setPorts(dir, slices.Delete(slices.Clone(ports), index, index+1))

	f.emit(ctx, notify.Event{Kind: notify.PortRemoved, Port: &ref})
	return nil
}

func (f *Flow) emit(ctx context.Context, e notify.Event) {
	e.Flow = f.name
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	f.sink.Notify(ctx, e)
}

func (f *Flow) logger(ctx context.Context) *slog.Logger {
	return ctxlog.FromContext(ctx).With(ctxlog.FlowAttr(f.name))
}
