package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/dag"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/subgraph"
)

// flowCheck keeps boundary nodes out of ordinary flows.
func (s *Session) flowCheck(_ context.Context, t *flow.NodeType) error {
	if subgraph.IsBoundary(t) {
		return fmt.Errorf("%s nodes belong in function definitions", t.ID)
	}
	return nil
}

// functionCheck guards a definition: at most one boundary of each kind and
// no function node that would make def contain itself, directly or through
// other functions.
func (s *Session) functionCheck(def *flow.Flow) flow.PlacementCheck {
	return func(_ context.Context, t *flow.NodeType) error {
		if subgraph.IsBoundary(t) {
			if slices.ContainsFunc(def.Nodes(), func(n *flow.Node) bool { return n.Type().ID == t.ID }) {
				return fmt.Errorf("function %q already has a %s node", def.Name(), t.ID)
			}
			return nil
		}
		name, ok := subgraph.FunctionName(t.ID)
		if !ok {
			return nil
		}
		if name == def.Name() {
			return fmt.Errorf("%w: function %q cannot contain itself", flow.ErrRecursiveDefinition, name)
		}
		g, err := s.containment()
		if err != nil {
			return err
		}
		g.AddNode(name)
		if err := g.AddEdge(name, def.Name()); err != nil {
			return fmt.Errorf("%w: %w", flow.ErrRecursiveDefinition, err)
		}
		if err := g.DetectCycles(); err != nil {
			return fmt.Errorf("%w: placing %q in %q: %w", flow.ErrRecursiveDefinition, name, def.Name(), err)
		}
		return nil
	}
}

// containment builds the graph of which function contains which from the
// committed definitions.
func (s *Session) containment() (*dag.Graph, error) {
	g := dag.New()
	for _, name := range s.Functions() {
		g.AddNode(name)
		fn, ok := s.Function(name)
		if !ok {
			continue
		}
		for _, ref := range fn.References() {
			g.AddNode(ref)
			if err := g.AddEdge(ref, name); err != nil {
				return nil, fmt.Errorf("%w: %w", flow.ErrRecursiveDefinition, err)
			}
		}
	}
	return g, nil
}

// checkRecord applies the placement rules to a snapshot about to be loaded.
func checkRecord(rec *config.Flow, isFunction bool) error {
	counts := make(map[string]int)
	for _, n := range rec.Nodes {
		if n.Type != subgraph.InputTypeID && n.Type != subgraph.OutputTypeID {
			continue
		}
		if !isFunction {
			return fmt.Errorf("flow %q: %s nodes belong in function definitions", rec.Name, n.Type)
		}
		counts[n.Type]++
		if counts[n.Type] > 1 {
			return fmt.Errorf("function %q: more than one %s node", rec.Name, n.Type)
		}
	}
	return nil
}
