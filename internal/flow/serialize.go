package flow

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Serialize captures the flow as a format-agnostic record: nodes with their
// ports and state, connections by endpoint and variables.
func Serialize(f *Flow, conv config.Converter) (*config.Flow, error) {
	rec := &config.Flow{
		Name:    f.name,
		Version: config.SchemaVersion,
		Mode:    f.mode.String(),
		NextID:  int(f.ids.Peek()),
	}

	for _, n := range f.order {
		nr, err := serializeNode(n, conv)
		if err != nil {
			return nil, fmt.Errorf("flow %q: node %s: %w", f.name, n.id, err)
		}
		rec.Nodes = append(rec.Nodes, nr)
	}

	for _, c := range f.conns {
		rec.Connections = append(rec.Connections, &config.Connection{From: c.out.Ref(), To: c.in.Ref()})
	}

	for _, name := range f.varOrder {
		v, err := conv.ToCtyValue(f.vars[name])
		if err != nil {
			return nil, fmt.Errorf("flow %q: variable %q: %w", f.name, name, err)
		}
		rec.Variables = append(rec.Variables, &config.Variable{Name: name, Value: v})
	}
	return rec, nil
}

func serializeNode(n *Node, conv config.Converter) (*config.Node, error) {
	nr := &config.Node{ID: int(n.id), Type: n.typ.ID, Version: n.typ.Version, State: cty.NilVal}

	if s, ok := n.behavior.(Stateful); ok {
		if st := s.State(); st != nil {
			v, err := conv.ToCtyValue(st)
			if err != nil {
				return nil, fmt.Errorf("state: %w", err)
			}
			nr.State = v
		}
	}

	var err error
	if nr.Inputs, err = serializePorts(n.inputs, conv); err != nil {
		return nil, err
	}
	if nr.Outputs, err = serializePorts(n.outputs, conv); err != nil {
		return nil, err
	}

	if h, ok := n.behavior.(SubgraphHolder); ok && h.Inner() != nil {
		sub, err := Serialize(h.Inner(), conv)
		if err != nil {
			return nil, fmt.Errorf("subgraph: %w", err)
		}
		nr.Subgraph = sub
	}
	return nr, nil
}

func serializePorts(ports []*Port, conv config.Converter) ([]*config.Port, error) {
	var out []*config.Port
	for _, p := range ports {
		pr := &config.Port{Kind: p.Kind().String(), Label: p.cfg.Label, Hint: p.cfg.Hint}
		if p.cfg.Default != nil {
			v, err := conv.ToCtyValue(p.cfg.Default)
			if err != nil {
				return nil, fmt.Errorf("port %s default: %w", p, err)
			}
			pr.Default = &v
		}
		if val, ok := p.Value(); ok && p.Kind() == Data {
			v, err := conv.ToCtyValue(val)
			if err != nil {
				return nil, fmt.Errorf("port %s value: %w", p, err)
			}
			pr.Value = &v
		}
		out = append(out, pr)
	}
	return out, nil
}

// Deserialize rebuilds a flow from rec. Node types are resolved through
// types. Variables and caches are restored before the flow is returned and
// no propagation runs during loading.
func Deserialize(ctx context.Context, rec *config.Flow, types TypeResolver, conv config.Converter, opts ...Option) (*Flow, error) {
	logger := ctxlog.FromContext(ctx).With(ctxlog.FlowAttr(rec.Name))

	mode, err := ParseMode(rec.Mode)
	if err != nil {
		return nil, fmt.Errorf("flow %q: %w", rec.Name, err)
	}
	f := New(rec.Name, append([]Option{WithMode(mode)}, opts...)...)

	// Variables first so that placement hooks can read them.
	for _, vr := range rec.Variables {
		v, err := conv.FromCtyValue(vr.Value)
		if err != nil {
			return nil, fmt.Errorf("flow %q: variable %q: %w", rec.Name, vr.Name, err)
		}
		f.storeVar(vr.Name, v)
	}

	next := nodeid.ID(rec.NextID)
	for _, nr := range rec.Nodes {
		t, ok := types.NodeType(nr.Type)
		if !ok {
			return nil, fmt.Errorf("flow %q: node n%d: %w: %q", rec.Name, nr.ID, ErrUnknownNodeType, nr.Type)
		}
		if nr.Version != "" && nr.Version != t.Version {
			logger.Warn("Node type version differs from snapshot.", "type", t.ID, "snapshot", nr.Version, "current", t.Version)
		}
		n, err := restoreNode(ctx, f, t, nr, types, conv)
		if err != nil {
			return nil, fmt.Errorf("flow %q: node n%d: %w", rec.Name, nr.ID, err)
		}
		if n.id >= next {
			next = n.id + 1
		}
	}
	if err := f.ids.SetCount(next); err != nil {
		return nil, err
	}

	for _, cr := range rec.Connections {
		out, okOut := f.ResolvePort(cr.From)
		in, okIn := f.ResolvePort(cr.To)
		if !okOut || !okIn || cr.From.Dir != Output || cr.To.Dir != Input {
			return nil, fmt.Errorf("flow %q: %w: %s -> %s", rec.Name, ErrDanglingConnection, cr.From, cr.To)
		}
		if out.Kind() != in.Kind() || out.node == in.node {
			return nil, fmt.Errorf("flow %q: %w: %s -> %s", rec.Name, ErrInvalidEndpoint, cr.From, cr.To)
		}
		if _, dup := f.ConnectionBetween(out, in); dup {
			continue
		}
		if len(in.conns) > 0 {
			return nil, fmt.Errorf("flow %q: %w: %s", rec.Name, ErrPortOccupied, cr.To)
		}
		f.link(ctx, out, in)
	}

	logger.Debug("Flow restored.", "nodes", len(f.order), "connections", len(f.conns), "variables", len(f.varOrder))
	return f, nil
}

func restoreNode(ctx context.Context, f *Flow, t *NodeType, nr *config.Node, types TypeResolver, conv config.Converter) (*Node, error) {
	n := newNode(t, nodeid.ID(nr.ID))

	if s, ok := n.behavior.(Stateful); ok && !nr.State.IsNull() {
		raw, err := conv.FromCtyValue(nr.State)
		if err != nil {
			return nil, fmt.Errorf("state: %w", err)
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("state must be an object, got %T", raw)
		}
		if err := s.SetState(m); err != nil {
			return nil, fmt.Errorf("state: %w", err)
		}
	}

	for _, dir := range []Direction{Input, Output} {
		recorded := nr.Inputs
		if dir == Output {
			recorded = nr.Outputs
		}
		if err := reconcilePorts(ctx, n, dir, recorded, conv); err != nil {
			return nil, err
		}
	}

	if h, ok := n.behavior.(SubgraphHolder); ok && nr.Subgraph != nil {
		if err := h.RestoreInner(ctx, nr.Subgraph, types, conv); err != nil {
			return nil, fmt.Errorf("subgraph: %w", err)
		}
	}

	if err := f.insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// reconcilePorts lines the type's blueprint ports up with the recorded ones.
// Dynamic nodes take a non-empty recorded port list as authoritative; static
// nodes keep their blueprint and only take values from matching positions.
// A hand-written record that lists no ports keeps the blueprint either way.
func reconcilePorts(ctx context.Context, n *Node, dir Direction, recorded []*config.Port, conv config.Converter) error {
	logger := ctxlog.FromContext(ctx)
	ports := n.ports(dir)
	if len(recorded) == 0 {
		return nil
	}

	if n.typ.DynamicPorts {
		ports = make([]*Port, 0, len(recorded))
		for i, pr := range recorded {
			cfg, err := portConfig(pr, conv)
			if err != nil {
				return err
			}
			ports = append(ports, &Port{node: n, dir: dir, index: i, cfg: cfg})
		}
		n.setPorts(dir, ports)
	} else if len(recorded) != len(ports) {
		logger.Warn("Recorded port count differs from node type.", "type", n.typ.ID, "dir", dir.String(), "recorded", len(recorded), "current", len(ports))
	}

	for i, pr := range recorded {
		if i >= len(ports) {
			break
		}
		p := ports[i]
		if pr.Kind != "" && pr.Kind != p.Kind().String() {
			logger.Warn("Recorded port kind differs, value skipped.", "port", p.String(), "recorded", pr.Kind)
			continue
		}
		if pr.Value == nil {
			p.val, p.set = nil, false
			continue
		}
		v, err := conv.FromCtyValue(*pr.Value)
		if err != nil {
			return fmt.Errorf("port %s: %w", p, err)
		}
		p.store(v)
	}
	return nil
}

func portConfig(pr *config.Port, conv config.Converter) (PortConfig, error) {
	kind, err := ParseKind(pr.Kind)
	if err != nil {
		return PortConfig{}, err
	}
	cfg := PortConfig{Kind: kind, Label: pr.Label, Hint: pr.Hint}
	if pr.Default != nil {
		if cfg.Default, err = conv.FromCtyValue(*pr.Default); err != nil {
			return PortConfig{}, fmt.Errorf("port %q default: %w", pr.Label, err)
		}
	}
	return cfg, nil
}
