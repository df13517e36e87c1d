package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/subgraph"
	"github.com/specialistvlad/flowcore/modules/arith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var ctyEqual = cmp.Comparer(func(a, b cty.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	return a.Equals(b).True()
})

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(context.Background(), WithModules(&arith.Module{}))
	require.NoError(t, err)
	return s
}

func nodeType(t *testing.T, s *Session, id string) *flow.NodeType {
	t.Helper()
	nt, ok := s.Registry().NodeType(id)
	require.True(t, ok, "type %q", id)
	return nt
}

// defineAdd builds a function "add" with inputs a, b and output sum.
func defineAdd(t *testing.T, s *Session) *subgraph.Function {
	t.Helper()
	ctx := context.Background()
	fn, err := s.CreateFunction(ctx, "add")
	require.NoError(t, err)

	err = s.Do(ctx, "add", func(ctx context.Context, def *flow.Flow) error {
		in, out := subgraph.Boundaries(def)
		require.NotNil(t, in)
		require.NotNil(t, out)
		add, err := def.AddNode(ctx, nodeType(t, s, arith.AddTypeID))
		if err != nil {
			return err
		}
		for _, label := range []string{"a", "b"} {
			if _, err := def.AddPort(ctx, in, flow.Output, -1, flow.PortConfig{Kind: flow.Data, Label: label}); err != nil {
				return err
			}
		}
		if _, err := def.AddPort(ctx, out, flow.Input, -1, flow.PortConfig{Kind: flow.Data, Label: "sum"}); err != nil {
			return err
		}
		for _, pair := range [][2]*flow.Port{
			{in.Output(0), add.Input(0)},
			{in.Output(1), add.Input(1)},
			{add.Output(0), out.Input(0)},
		} {
			if _, err := def.Connect(ctx, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return fn
}

// placeAdd puts an instance of "add" into flow main and feeds it a and b.
func placeAdd(t *testing.T, s *Session, a, b any) *flow.Node {
	t.Helper()
	ctx := context.Background()
	var node *flow.Node
	err := s.Do(ctx, "main", func(ctx context.Context, f *flow.Flow) error {
		var err error
		node, err = f.AddNode(ctx, nodeType(t, s, subgraph.TypeID("add")))
		if err != nil {
			return err
		}
		if err := f.SetValue(ctx, node.Input(0), a); err != nil {
			return err
		}
		return f.SetValue(ctx, node.Input(1), b)
	})
	require.NoError(t, err)
	return node
}

func TestNewRegistersBoundaries(t *testing.T) {
	s := newSession(t)
	nodeType(t, s, subgraph.InputTypeID)
	nodeType(t, s, subgraph.OutputTypeID)
	nodeType(t, s, arith.AddTypeID)
}

func TestRegisterNodeTypesTwice(t *testing.T) {
	s := newSession(t)
	nt := &flow.NodeType{ID: "probe"}
	require.NoError(t, s.RegisterNodeTypes(nt))
	require.NoError(t, s.RegisterNodeTypes(nt), "same definition is idempotent")

	err := s.RegisterNodeTypes(&flow.NodeType{ID: "probe"})
	require.ErrorIs(t, err, registry.ErrDuplicateNodeType)
	got := nodeType(t, s, "probe")
	assert.Same(t, nt, got, "first definition is kept")

	s.UnregisterNodeTypes("probe")
	_, ok := s.Registry().NodeType("probe")
	assert.False(t, ok)
}

func TestFlowLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)

	f, err := s.CreateFlow(ctx, "main")
	require.NoError(t, err)
	assert.NotEmpty(t, f.UID())

	_, err = s.CreateFlow(ctx, "main")
	require.ErrorIs(t, err, ErrDuplicateFlow)
	_, err = s.CreateFunction(ctx, "main")
	require.ErrorIs(t, err, ErrDuplicateFlow)

	_, err = s.CreateFlow(ctx, "other")
	require.NoError(t, err)
	require.ErrorIs(t, s.RenameFlow(ctx, "main", "other"), ErrDuplicateFlow)
	require.NoError(t, s.RenameFlow(ctx, "main", "renamed"))
	assert.Equal(t, []string{"renamed", "other"}, s.Flows())
	assert.Equal(t, "renamed", f.Name())

	got, ok := s.Flow("renamed")
	require.True(t, ok)
	assert.Same(t, f, got)
	_, ok = s.Flow("main")
	assert.False(t, ok)

	require.NoError(t, s.DeleteFlow(ctx, "renamed"))
	require.ErrorIs(t, s.DeleteFlow(ctx, "renamed"), ErrFlowNotFound)
	require.ErrorIs(t, s.Do(ctx, "renamed", func(context.Context, *flow.Flow) error { return nil }), ErrFlowNotFound)
	assert.Equal(t, []string{"other"}, s.Flows())
}

func TestFunctionCannotBeRenamed(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	defineAdd(t, s)
	require.Error(t, s.RenameFlow(ctx, "add", "plus"))
	require.ErrorIs(t, s.DeleteFlow(ctx, "add"), ErrFlowNotFound)
}

func TestFunctionAddsThroughSubgraph(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	defineAdd(t, s)
	_, err := s.CreateFlow(ctx, "main")
	require.NoError(t, err)

	node := placeAdd(t, s, 3, 4)
	require.Len(t, node.Inputs(), 2)
	require.Len(t, node.Outputs(), 1)

	v, ok := node.Output(0).Value()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestPlacementChecks(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	defineAdd(t, s)
	_, err := s.CreateFunction(ctx, "outer")
	require.NoError(t, err)
	_, err = s.CreateFlow(ctx, "main")
	require.NoError(t, err)

	place := func(name, typeID string) error {
		return s.Do(ctx, name, func(ctx context.Context, f *flow.Flow) error {
			_, err := f.AddNode(ctx, nodeType(t, s, typeID))
			return err
		})
	}

	assert.Error(t, place("main", subgraph.InputTypeID), "boundaries stay in definitions")
	assert.Error(t, place("add", subgraph.OutputTypeID), "one boundary of each kind")
	assert.ErrorIs(t, place("add", subgraph.TypeID("add")), flow.ErrRecursiveDefinition)

	require.NoError(t, place("outer", subgraph.TypeID("add")))
	fn, _ := s.Function("outer")
	assert.Equal(t, []string{"add"}, fn.References())
	assert.ErrorIs(t, place("add", subgraph.TypeID("outer")), flow.ErrRecursiveDefinition)
}

func TestPlacementChecks_IndirectRecursion(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.CreateFunction(ctx, name)
		require.NoError(t, err)
	}
	place := func(name, fn string) error {
		return s.Do(ctx, name, func(ctx context.Context, f *flow.Flow) error {
			_, err := f.AddNode(ctx, nodeType(t, s, subgraph.TypeID(fn)))
			return err
		})
	}

	require.NoError(t, place("a", "b"))
	require.NoError(t, place("b", "c"))
	err := place("c", "a")
	require.ErrorIs(t, err, flow.ErrRecursiveDefinition)
	assert.ErrorContains(t, err, `placing "a" in "c"`)

	require.NoError(t, s.Do(ctx, "c", func(ctx context.Context, f *flow.Flow) error {
		assert.Len(t, f.Nodes(), 2, "the rejected node is not placed")
		return nil
	}))
	require.NoError(t, place("a", "c"), "sharing a function is not recursion")

	p, err := s.Serialize(ctx)
	require.NoError(t, err)
	var names []string
	for _, rec := range p.Functions {
		names = append(names, rec.Name)
	}
	assert.Equal(t, []string{"c", "b", "a"}, names)

	loaded := newSession(t)
	require.NoError(t, loaded.Load(ctx, p))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, loaded.Functions())
	again, err := loaded.Serialize(ctx)
	require.NoError(t, err)
	require.Len(t, again.Functions, 3)
	assert.Equal(t, "a", again.Functions[2].Name)

	a, _ := loaded.Function("a")
	assert.ElementsMatch(t, []string{"b", "c"}, a.References())
}

func TestDeleteFunction(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	defineAdd(t, s)
	_, err := s.CreateFlow(ctx, "main")
	require.NoError(t, err)
	node := placeAdd(t, s, 1, 2)

	require.ErrorIs(t, s.DeleteFunction(ctx, "add"), ErrFunctionInUse)

	require.NoError(t, s.Do(ctx, "main", func(ctx context.Context, f *flow.Flow) error {
		return f.RemoveNode(ctx, node)
	}))
	require.NoError(t, s.DeleteFunction(ctx, "add"))
	_, ok := s.Registry().NodeType(subgraph.TypeID("add"))
	assert.False(t, ok)
	assert.Empty(t, s.Functions())
	require.ErrorIs(t, s.DeleteFunction(ctx, "add"), ErrFlowNotFound)
}

func TestSerializeAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	defineAdd(t, s)
	_, err := s.CreateFunction(ctx, "twice")
	require.NoError(t, err)
	_, err = s.CreateFlow(ctx, "main")
	require.NoError(t, err)
	placeAdd(t, s, 3, 4)
	require.NoError(t, s.Do(ctx, "twice", func(ctx context.Context, f *flow.Flow) error {
		_, err := f.AddNode(ctx, nodeType(t, s, subgraph.TypeID("add")))
		return err
	}))
	require.NoError(t, s.Do(ctx, "main", func(ctx context.Context, f *flow.Flow) error {
		return f.SetVar(ctx, "answer", 42)
	}))

	p, err := s.Serialize(ctx)
	require.NoError(t, err)
	require.Len(t, p.Functions, 2)
	assert.Equal(t, "add", p.Functions[0].Name)
	assert.Equal(t, "twice", p.Functions[1].Name)
	require.Len(t, p.Flows, 1)

	loaded := newSession(t)
	require.NoError(t, loaded.Load(ctx, p))
	assert.Equal(t, []string{"add", "twice"}, loaded.Functions())
	assert.Equal(t, []string{"main"}, loaded.Flows())

	again, err := loaded.Serialize(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(p, again, ctyEqual); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	// The loaded instance still computes.
	require.NoError(t, loaded.Do(ctx, "main", func(ctx context.Context, f *flow.Flow) error {
		n := f.Nodes()[0]
		if err := f.SetValue(ctx, n.Input(0), 10); err != nil {
			return err
		}
		v, _ := n.Output(0).Value()
		assert.Equal(t, 14, v)
		return nil
	}))

	// Loading the same project twice clashes by name.
	require.ErrorIs(t, loaded.Load(ctx, p), ErrDuplicateFlow)
}

func TestLoadRejectsRecursiveFunctions(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	p := &config.Project{
		Functions: []*config.Flow{
			{Name: "a", Nodes: []*config.Node{{ID: 0, Type: subgraph.TypeID("b")}}},
			{Name: "b", Nodes: []*config.Node{{ID: 0, Type: subgraph.TypeID("a")}}},
		},
	}
	require.ErrorIs(t, s.Load(ctx, p), flow.ErrRecursiveDefinition)

	self := &config.Project{
		Functions: []*config.Flow{{Name: "a", Nodes: []*config.Node{{ID: 0, Type: subgraph.TypeID("a")}}}},
	}
	require.ErrorIs(t, s.Load(ctx, self), flow.ErrRecursiveDefinition)
	assert.Empty(t, s.Functions())
}

func TestLoadIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	p := &config.Project{
		Functions: []*config.Flow{{Name: "f", Nodes: []*config.Node{{ID: 0, Type: subgraph.InputTypeID}}}},
		Flows: []*config.Flow{
			{Name: "good"},
			{Name: "bad", Nodes: []*config.Node{{ID: 0, Type: "missing"}}},
		},
	}
	require.ErrorIs(t, s.Load(ctx, p), flow.ErrUnknownNodeType)
	assert.Empty(t, s.Flows())
	assert.Empty(t, s.Functions())
	_, ok := s.Registry().NodeType(subgraph.TypeID("f"))
	assert.False(t, ok)

	boundaryInFlow := &config.Project{
		Flows: []*config.Flow{{Name: "x", Nodes: []*config.Node{{ID: 0, Type: subgraph.OutputTypeID}}}},
	}
	require.Error(t, s.Load(ctx, boundaryInFlow))
	assert.Empty(t, s.Flows())
}

func TestStartRunsFlowsOnWorkers(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	defineAdd(t, s)
	_, err := s.CreateFlow(ctx, "main")
	require.NoError(t, err)

	s.Start(ctx)
	_, err = s.CreateFlow(ctx, "late")
	require.NoError(t, err)

	node := placeAdd(t, s, 2, 5)
	v, _ := node.Output(0).Value()
	assert.Equal(t, 7, v)
	require.NoError(t, s.Do(ctx, "late", func(context.Context, *flow.Flow) error { return nil }))

	done := make(chan error, 1)
	go func() { done <- s.Stop() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("session did not stop")
	}

	// After Stop commands run inline.
	require.NoError(t, s.Do(ctx, "main", func(context.Context, *flow.Flow) error { return nil }))
}
