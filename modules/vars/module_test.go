package vars_test

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/specialistvlad/flowcore/modules/control"
	"github.com/specialistvlad/flowcore/modules/vars"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolver map[string]*flow.NodeType

func (r resolver) NodeType(id string) (*flow.NodeType, bool) {
	t, ok := r[id]
	return t, ok
}

func output(n *flow.Node) any {
	v, _ := n.Output(0).Value()
	return v
}

func TestGetVarFollowsVariable(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	require.NoError(t, f.SetVar(ctx, "x", 1))

	n, err := f.AddNode(ctx, vars.GetType())
	require.NoError(t, err)
	require.NoError(t, f.SetValue(ctx, n.Input(0), "x"))
	assert.Equal(t, "x", vars.Subscription(n))
	assert.Equal(t, 1, output(n))

	require.NoError(t, f.SetVar(ctx, "x", 5))
	assert.Equal(t, 5, output(n))

	require.NoError(t, f.SetVar(ctx, "y", "why"))
	require.NoError(t, f.SetValue(ctx, n.Input(0), "y"))
	assert.Equal(t, "why", output(n))

	require.NoError(t, f.SetVar(ctx, "x", 6))
	assert.Equal(t, "why", output(n), "old subscription is dropped")
}

func TestGetVarBadName(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n, err := f.AddNode(ctx, vars.GetType())
	require.NoError(t, err)

	err = f.SetValue(ctx, n.Input(0), 3)
	require.ErrorIs(t, err, flow.ErrNodeBehavior)
	assert.Empty(t, vars.Subscription(n))
}

func TestSubscribeInExecMode(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main", flow.WithMode(flow.ModeExec))
	n, err := f.AddNode(ctx, vars.GetType())
	require.NoError(t, err)

	require.NoError(t, vars.Subscribe(n, "x"))
	require.NoError(t, f.SetVar(ctx, "x", true))
	assert.Equal(t, true, output(n))
}

func TestRemovedGetVarIsUnsubscribed(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n, err := f.AddNode(ctx, vars.GetType())
	require.NoError(t, err)
	require.NoError(t, vars.Subscribe(n, "x"))

	require.NoError(t, f.RemoveNode(ctx, n))
	require.NoError(t, f.SetVar(ctx, "x", 1))
	_, ok := n.Output(0).Value()
	assert.False(t, ok)
}

func TestSetVarExecChain(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main", flow.WithMode(flow.ModeExec))

	start, err := f.AddNode(ctx, control.StartType())
	require.NoError(t, err)
	set, err := f.AddNode(ctx, vars.SetType())
	require.NoError(t, err)
	get, err := f.AddNode(ctx, vars.GetType())
	require.NoError(t, err)
	require.NoError(t, vars.Subscribe(get, "total"))

	_, err = f.Connect(ctx, start.Output(0), set.Input(0))
	require.NoError(t, err)
	require.NoError(t, f.SetValue(ctx, set.Input(1), "total"))
	require.NoError(t, f.SetValue(ctx, set.Input(2), 42))

	_, ok := f.GetVar("total")
	assert.False(t, ok, "exec mode assigns only on a pulse")

	require.NoError(t, start.RunAction(ctx, control.TriggerAction))
	v, ok := f.GetVar("total")
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, output(get))
}

func TestSetVarDataMode(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	set, err := f.AddNode(ctx, vars.SetType())
	require.NoError(t, err)

	require.NoError(t, f.SetValue(ctx, set.Input(2), "early"))
	_, ok := f.GetVar("")
	assert.False(t, ok, "no name, nothing assigned")

	require.NoError(t, f.SetValue(ctx, set.Input(1), "v"))
	require.NoError(t, f.SetValue(ctx, set.Input(2), "late"))
	v, ok := f.GetVar("v")
	require.True(t, ok)
	assert.Equal(t, "late", v)

	err = f.Trigger(ctx, set, 0)
	require.NoError(t, err)
}

func TestSetVarWithoutName(t *testing.T) {
	f := flow.New("main")
	set, err := f.AddNode(context.Background(), vars.SetType())
	require.NoError(t, err)
	require.ErrorIs(t, f.Trigger(context.Background(), set, 0), flow.ErrNodeBehavior)
}

func TestGetVarSubscriptionSurvivesLoad(t *testing.T) {
	ctx := context.Background()
	conv := hcl.NewConverter()
	typ := vars.GetType()

	f := flow.New("main")
	n, err := f.AddNode(ctx, typ)
	require.NoError(t, err)
	require.NoError(t, vars.Subscribe(n, "x"))
	require.NoError(t, f.SetVar(ctx, "x", 1))

	rec, err := flow.Serialize(f, conv)
	require.NoError(t, err)
	g, err := flow.Deserialize(ctx, rec, resolver{typ.ID: typ}, conv)
	require.NoError(t, err)

	m, _ := g.Node(n.ID())
	assert.Equal(t, "x", vars.Subscription(m))
	assert.Equal(t, 1, output(m))

	require.NoError(t, g.SetVar(ctx, "x", 2))
	assert.Equal(t, 2, output(m))
}
