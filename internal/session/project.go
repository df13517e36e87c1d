package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/dag"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/subgraph"
)

// overlay resolves types staged by a load before falling back to the
// registry.
type overlay struct {
	local map[string]*flow.NodeType
	base  flow.TypeResolver
}

func (o *overlay) NodeType(id string) (*flow.NodeType, bool) {
	if t, ok := o.local[id]; ok {
		return t, true
	}
	return o.base.NodeType(id)
}

// orderFunctions sorts function records so that every function follows the
// functions it contains. Containment cycles are recursive definitions.
func orderFunctions(recs []*config.Flow) ([]*config.Flow, error) {
	g := dag.New()
	byName := make(map[string]*config.Flow, len(recs))
	for _, r := range recs {
		g.AddNode(r.Name)
		byName[r.Name] = r
	}
	for _, r := range recs {
		for _, ref := range subgraph.References(r) {
			if _, ok := byName[ref]; !ok {
				continue
			}
			if err := g.AddEdge(ref, r.Name); err != nil {
				return nil, fmt.Errorf("%w: %w", flow.ErrRecursiveDefinition, err)
			}
		}
	}
	order, err := g.Sort()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", flow.ErrRecursiveDefinition, err)
	}
	out := make([]*config.Flow, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, nil
}

// Serialize captures every function definition, ordered so that each
// follows the functions it uses, and then every flow in creation order.
func (s *Session) Serialize(ctx context.Context) (*config.Project, error) {
	funcs, flows := s.Functions(), s.Flows()

	snap := func(name string) (*config.Flow, error) {
		var rec *config.Flow
		err := s.Do(ctx, name, func(_ context.Context, f *flow.Flow) error {
			var err error
			rec, err = flow.Serialize(f, s.conv)
			return err
		})
		return rec, err
	}

	p := &config.Project{}
	var fnRecs []*config.Flow
	for _, name := range funcs {
		rec, err := snap(name)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", name, err)
		}
		fnRecs = append(fnRecs, rec)
	}
	ordered, err := orderFunctions(fnRecs)
	if err != nil {
		return nil, err
	}
	p.Functions = ordered

	for _, name := range flows {
		rec, err := snap(name)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", name, err)
		}
		p.Flows = append(p.Flows, rec)
	}
	return p, nil
}

// Load adds the functions and flows of p to the session. Either everything
// is added or, on any error, nothing is. Names must not clash with each
// other or with what the session already holds.
func (s *Session) Load(ctx context.Context, p *config.Project) error {
	logger := ctxlog.FromContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]bool)
	for _, rec := range slices.Concat(p.Functions, p.Flows) {
		if rec.Name == "" {
			return fmt.Errorf("flow name must not be empty")
		}
		if names[rec.Name] {
			return fmt.Errorf("%w: %q appears twice in the project", ErrDuplicateFlow, rec.Name)
		}
		names[rec.Name] = true
		if err := s.nameFree(rec.Name); err != nil {
			return err
		}
	}

	ordered, err := orderFunctions(p.Functions)
	if err != nil {
		return err
	}

	staged := &overlay{local: make(map[string]*flow.NodeType), base: s.reg}
	var fns []*subgraph.Function
	for _, rec := range ordered {
		if err := checkRecord(rec, true); err != nil {
			return err
		}
		def, err := flow.Deserialize(ctx, rec, staged, s.conv, flow.WithSink(s.sink))
		if err != nil {
			return fmt.Errorf("function %q: %w", rec.Name, err)
		}
		def.SetPlacementCheck(s.functionCheck(def))
		fn := subgraph.NewFunction(def, staged, s.conv)
		if err := fn.Commit(); err != nil {
			return err
		}
		staged.local[fn.Type().ID] = fn.Type()
		fns = append(fns, fn)
	}

	var flows []*flow.Flow
	for _, rec := range p.Flows {
		if err := checkRecord(rec, false); err != nil {
			return err
		}
		f, err := flow.Deserialize(ctx, rec, staged, s.conv, s.flowOptions()...)
		if err != nil {
			return err
		}
		flows = append(flows, f)
	}

	var registered []string
	for _, fn := range fns {
		if err := s.reg.RegisterType(fn.Type()); err != nil {
			for _, id := range registered {
				s.reg.Unregister(id)
			}
			return fmt.Errorf("function %q: %w", fn.Name(), err)
		}
		registered = append(registered, fn.Type().ID)
	}

	// Functions are added in the project's order, not load order.
	for _, rec := range p.Functions {
		i := slices.IndexFunc(fns, func(fn *subgraph.Function) bool { return fn.Name() == rec.Name })
		s.add(s.newEntry(fns[i].Definition(), fns[i]))
	}
	for _, f := range flows {
		s.add(s.newEntry(f, nil))
	}
	logger.Info("Project loaded.", "functions", len(fns), "flows", len(flows))
	return nil
}
