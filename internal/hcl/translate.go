// This file translates the HCL schema structs into the format-agnostic
// snapshot model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

func translateFlow(ctx context.Context, b *flowBlock) (*config.Flow, error) {
	logger := ctxlog.FromContext(ctx).With(ctxlog.FlowAttr(b.Name))
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL flow to internal config model.")

	f := &config.Flow{
		Name:    b.Name,
		Version: deref(b.Version, config.SchemaVersion),
		Mode:    deref(b.Mode, ""),
		NextID:  deref(b.NextID, 0),
	}

	for _, nb := range b.Nodes {
		n, err := translateNode(ctx, nb)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", nb.ID, err)
		}
		f.Nodes = append(f.Nodes, n)
	}

	for _, cb := range b.Connections {
		from, err := nodeid.Parse(cb.From)
		if err != nil {
			return nil, fmt.Errorf("connection from: %w", err)
		}
		to, err := nodeid.Parse(cb.To)
		if err != nil {
			return nil, fmt.Errorf("connection to: %w", err)
		}
		f.Connections = append(f.Connections, &config.Connection{From: from, To: to})
	}

	for _, vb := range b.Variables {
		v, err := literal(ctx, vb.Value, "value")
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
		}
		val := cty.NullVal(cty.DynamicPseudoType)
		if v != nil {
			val = *v
		}
		f.Variables = append(f.Variables, &config.Variable{Name: vb.Name, Value: val})
	}
	return f, nil
}

func translateNode(ctx context.Context, b *nodeBlock) (*config.Node, error) {
	id, err := nodeid.ParseNode(b.ID)
	if err != nil {
		return nil, err
	}
	n := &config.Node{ID: int(id), Type: b.Type, Version: deref(b.Version, ""), State: cty.NilVal}

	state, err := literal(ctx, b.State, "state")
	if err != nil {
		return nil, err
	}
	if state != nil {
		n.State = *state
	}

	if n.Inputs, err = translatePorts(ctx, b.Inputs); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	if n.Outputs, err = translatePorts(ctx, b.Outputs); err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}

	if b.Subgraph != nil {
		if n.Subgraph, err = translateFlow(ctx, b.Subgraph); err != nil {
			return nil, fmt.Errorf("subgraph: %w", err)
		}
	}
	return n, nil
}

func translatePorts(ctx context.Context, blocks []*portBlock) ([]*config.Port, error) {
	var out []*config.Port
	for i, pb := range blocks {
		p := &config.Port{
			Kind:  deref(pb.Kind, "data"),
			Label: deref(pb.Label, ""),
			Hint:  deref(pb.Hint, ""),
		}
		var err error
		if p.Default, err = literal(ctx, pb.Default, "default"); err != nil {
			return nil, fmt.Errorf("port %d: %w", i, err)
		}
		if p.Value, err = literal(ctx, pb.Value, "value"); err != nil {
			return nil, fmt.Errorf("port %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
