package subgraph

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toInt(v any) int {
	i, _ := v.(int)
	return i
}

var addType = &flow.NodeType{
	ID:      "add",
	Inputs:  []flow.PortConfig{{Kind: flow.Data, Label: "a"}, {Kind: flow.Data, Label: "b"}},
	Outputs: []flow.PortConfig{{Kind: flow.Data, Label: "sum"}},
	New: func() flow.Behavior {
		return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
			return n.SetOutput(ctx, 0, toInt(n.InputValue(0))+toInt(n.InputValue(1)))
		})
	},
}

type fixture struct {
	reg *registry.Registry
	fn  *Function
	def *flow.Flow
}

// newAddFunction builds the definition: input(a, b) -> add -> output(sum).
func newAddFunction(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	reg := registry.New()
	require.NoError(t, reg.RegisterTypes(InputType, OutputType, addType))

	def := flow.New("add")
	fn := NewFunction(def, reg, hcl.NewConverter())
	require.NoError(t, reg.RegisterType(fn.Type()))

	in, err := def.AddNode(ctx, InputType)
	require.NoError(t, err)
	out, err := def.AddNode(ctx, OutputType)
	require.NoError(t, err)
	add, err := def.AddNode(ctx, addType)
	require.NoError(t, err)

	_, err = def.AddPort(ctx, in, flow.Output, -1, flow.PortConfig{Kind: flow.Data, Label: "a"})
	require.NoError(t, err)
	_, err = def.AddPort(ctx, in, flow.Output, -1, flow.PortConfig{Kind: flow.Data, Label: "b"})
	require.NoError(t, err)
	_, err = def.AddPort(ctx, out, flow.Input, -1, flow.PortConfig{Kind: flow.Data, Label: "sum"})
	require.NoError(t, err)

	for _, pair := range [][2]*flow.Port{
		{in.Output(0), add.Input(0)},
		{in.Output(1), add.Input(1)},
		{add.Output(0), out.Input(0)},
	} {
		_, err := def.Connect(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}
	require.NoError(t, fn.Commit())
	return &fixture{reg: reg, fn: fn, def: def}
}

func TestFunction_AddsThroughSubgraph(t *testing.T) {
	ctx := context.Background()
	fx := newAddFunction(t)

	main := flow.New("main")
	node, err := main.AddNode(ctx, fx.fn.Type())
	require.NoError(t, err)
	require.Len(t, node.Inputs(), 2)
	require.Len(t, node.Outputs(), 1)
	assert.Equal(t, "a", node.Input(0).Label())
	assert.Equal(t, "sum", node.Output(0).Label())

	require.NoError(t, main.SetValue(ctx, node.Input(0), 3))
	require.NoError(t, main.SetValue(ctx, node.Input(1), 4))

	v, ok := node.Output(0).Value()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestFunction_InstancesAreIndependent(t *testing.T) {
	ctx := context.Background()
	fx := newAddFunction(t)
	main := flow.New("main")
	first, err := main.AddNode(ctx, fx.fn.Type())
	require.NoError(t, err)
	second, err := main.AddNode(ctx, fx.fn.Type())
	require.NoError(t, err)

	require.NoError(t, main.SetValue(ctx, first.Input(0), 10))
	_, set := second.Output(0).Value()
	assert.False(t, set)
	assert.NotSame(t, first.Behavior().(*wrapper).Inner(), second.Behavior().(*wrapper).Inner())
}

func TestWrapper_PortEditsMirrorBoundary(t *testing.T) {
	ctx := context.Background()
	fx := newAddFunction(t)
	main := flow.New("main")
	node, err := main.AddNode(ctx, fx.fn.Type())
	require.NoError(t, err)
	w := node.Behavior().(*wrapper)

	_, err = main.AddPort(ctx, node, flow.Input, 1, flow.PortConfig{Kind: flow.Exec, Label: "run"})
	require.NoError(t, err)
	require.Len(t, w.in.Outputs(), 3)
	assert.Equal(t, "run", w.in.Output(1).Label())
	assert.Equal(t, flow.Exec, w.in.Output(1).Kind())

	require.NoError(t, main.RemovePort(ctx, node, flow.Input, 1))
	require.Len(t, w.in.Outputs(), 2)
	assert.Equal(t, "b", w.in.Output(1).Label())

	_, err = main.AddPort(ctx, node, flow.Output, -1, flow.PortConfig{Kind: flow.Data, Label: "extra"})
	require.NoError(t, err)
	assert.Len(t, w.out.Inputs(), 2)

	_, err = w.inner.AddPort(ctx, w.in, flow.Output, -1, flow.PortConfig{})
	require.ErrorIs(t, err, ErrBoundaryLocked)
	assert.ErrorIs(t, w.inner.RemovePort(ctx, w.out, flow.Input, 0), ErrBoundaryLocked)
	assert.Len(t, node.Inputs(), 2)
}

func TestWrapper_ExecPulseCrossesBoundary(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	require.NoError(t, reg.RegisterTypes(InputType, OutputType))
	def := flow.New("relay", flow.WithMode(flow.ModeExec))
	fn := NewFunction(def, reg, hcl.NewConverter())
	require.NoError(t, reg.RegisterType(fn.Type()))

	in, err := def.AddNode(ctx, InputType)
	require.NoError(t, err)
	out, err := def.AddNode(ctx, OutputType)
	require.NoError(t, err)
	_, err = def.AddPort(ctx, in, flow.Output, -1, flow.PortConfig{Kind: flow.Exec})
	require.NoError(t, err)
	_, err = def.AddPort(ctx, in, flow.Output, -1, flow.PortConfig{Kind: flow.Data})
	require.NoError(t, err)
	_, err = def.AddPort(ctx, out, flow.Input, -1, flow.PortConfig{Kind: flow.Exec})
	require.NoError(t, err)
	_, err = def.AddPort(ctx, out, flow.Input, -1, flow.PortConfig{Kind: flow.Data})
	require.NoError(t, err)
	_, err = def.Connect(ctx, in.Output(0), out.Input(0))
	require.NoError(t, err)
	_, err = def.Connect(ctx, in.Output(1), out.Input(1))
	require.NoError(t, err)
	require.NoError(t, fn.Commit())

	main := flow.New("main", flow.WithMode(flow.ModeExec))
	node, err := main.AddNode(ctx, fn.Type())
	require.NoError(t, err)

	pulses := 0
	counter, err := main.AddNode(ctx, &flow.NodeType{
		ID:     "counter",
		Inputs: []flow.PortConfig{{Kind: flow.Exec}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(func(context.Context, *flow.Node, int) error {
				pulses++
				return nil
			})
		},
	})
	require.NoError(t, err)
	_, err = main.Connect(ctx, node.Output(0), counter.Input(0))
	require.NoError(t, err)

	require.NoError(t, main.SetValue(ctx, node.Input(1), "payload"))
	_, set := node.Output(1).Value()
	assert.False(t, set, "in exec mode data waits for a pulse")

	require.NoError(t, main.Trigger(ctx, node, 0))
	assert.Equal(t, 1, pulses)
	v, _ := node.Output(1).Value()
	assert.Equal(t, "payload", v)
}

func TestWrapper_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	conv := hcl.NewConverter()
	fx := newAddFunction(t)
	main := flow.New("main")
	node, err := main.AddNode(ctx, fx.fn.Type())
	require.NoError(t, err)
	require.NoError(t, main.SetValue(ctx, node.Input(0), 1))

	rec, err := flow.Serialize(main, conv)
	require.NoError(t, err)
	require.NotNil(t, rec.Nodes[0].Subgraph)
	assert.Equal(t, "add", rec.Nodes[0].Subgraph.Name)

	restored, err := flow.Deserialize(ctx, rec, fx.reg, conv)
	require.NoError(t, err)
	rn, ok := restored.Node(node.ID())
	require.True(t, ok)
	require.Len(t, rn.Inputs(), 2)

	require.NoError(t, restored.SetValue(ctx, rn.Input(1), 5))
	v, _ := rn.Output(0).Value()
	assert.Equal(t, 6, v, "the restored inner flow kept the cached first operand")
}

func TestFunction_References(t *testing.T) {
	ctx := context.Background()
	fx := newAddFunction(t)
	assert.Empty(t, fx.fn.References())

	_, err := fx.def.AddNode(ctx, fx.fn.Type())
	require.NoError(t, err)
	require.NoError(t, fx.fn.Commit())
	assert.Equal(t, []string{"add"}, fx.fn.References())
}

func TestFunction_InstantiateDetectsRecursion(t *testing.T) {
	fx := newAddFunction(t)
	_, err := fx.fn.Instantiate(withFrame(context.Background(), "add"))
	require.ErrorIs(t, err, flow.ErrRecursiveDefinition)
}

func TestFunction_UncommittedCannotInstantiate(t *testing.T) {
	fn := NewFunction(flow.New("draft"), registry.New(), hcl.NewConverter())
	_, err := flow.New("main").AddNode(context.Background(), fn.Type())
	assert.Error(t, err)
}

func TestTypeIDs(t *testing.T) {
	assert.Equal(t, "fn.add", TypeID("add"))
	name, ok := FunctionName("fn.add")
	assert.True(t, ok)
	assert.Equal(t, "add", name)
	_, ok = FunctionName("add")
	assert.False(t, ok)
	assert.True(t, IsBoundary(InputType))
	assert.False(t, IsBoundary(addType))
}
