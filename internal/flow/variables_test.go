package flow_test

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariables_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")

	_, ok := f.GetVar("missing")
	assert.False(t, ok, "an absent variable reports no value")

	require.NoError(t, f.SetVar(ctx, "x", nil))
	v, ok := f.GetVar("x")
	assert.True(t, ok, "a variable holding nil still exists")
	assert.Nil(t, v)

	require.NoError(t, f.SetVar(ctx, "y", 2))
	assert.Equal(t, []string{"x", "y"}, f.Vars())

	assert.True(t, f.DeleteVar(ctx, "x"))
	assert.False(t, f.DeleteVar(ctx, "x"))
	assert.Equal(t, []string{"y"}, f.Vars())

	assert.Error(t, f.SetVar(ctx, "", 1))
}

func TestVariables_ReceiverCalledOncePerSet(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n := mustAdd(t, f, sourceType())
	other := mustAdd(t, f, sourceType())

	var order []string
	var values []any
	require.NoError(t, f.RegisterVarReceiver(n, "x", func(ctx context.Context, v any) error {
		order = append(order, "n")
		values = append(values, v)
		return nil
	}))
	require.NoError(t, f.RegisterVarReceiver(other, "x", func(ctx context.Context, v any) error {
		order = append(order, "other")
		return nil
	}))
	assert.Empty(t, values, "registering does not deliver")

	require.NoError(t, f.SetVar(ctx, "x", 5))
	assert.Equal(t, []any{5}, values)
	assert.Equal(t, []string{"n", "other"}, order)

	require.NoError(t, f.SetVar(ctx, "x", 6))
	assert.Equal(t, []any{5, 6}, values)
}

func TestVariables_ReceiverDrivesPropagation(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n := mustAdd(t, f, sourceType())
	var got []any
	sink := mustAdd(t, f, sinkType("sink", &got))
	mustConnect(t, f, n.Output(0), sink.Input(0))

	require.NoError(t, f.RegisterVarReceiver(n, "x", func(ctx context.Context, v any) error {
		return n.SetOutput(ctx, 0, v)
	}))
	require.NoError(t, f.SetVar(ctx, "x", "hello"))
	assert.Equal(t, []any{"hello"}, got)
}

func TestVariables_ReceiverErrorIsReported(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n := mustAdd(t, f, sourceType())
	require.NoError(t, f.RegisterVarReceiver(n, "x", func(context.Context, any) error {
		return assert.AnError
	}))

	err := f.SetVar(ctx, "x", 1)
	require.ErrorIs(t, err, flow.ErrNodeBehavior)
	require.ErrorIs(t, err, assert.AnError)
	v, _ := f.GetVar("x")
	assert.Equal(t, 1, v, "the value is stored even when a receiver fails")
}

func TestVariables_Unregister(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n := mustAdd(t, f, sourceType())
	calls := 0
	require.NoError(t, f.RegisterVarReceiver(n, "x", func(context.Context, any) error {
		calls++
		return nil
	}))

	f.UnregisterVarReceiver(n, "x")
	f.UnregisterVarReceiver(n, "x")
	f.UnregisterVarReceiver(n, "never-registered")
	require.NoError(t, f.SetVar(ctx, "x", 1))
	assert.Zero(t, calls)
}

func TestVariables_RemovedNodeStopsReceiving(t *testing.T) {
	ctx := context.Background()
	f := flow.New("main")
	n := mustAdd(t, f, sourceType())
	calls := 0
	require.NoError(t, f.RegisterVarReceiver(n, "x", func(context.Context, any) error {
		calls++
		return nil
	}))
	require.NoError(t, f.RemoveNode(ctx, n))
	require.NoError(t, f.SetVar(ctx, "x", 1))
	assert.Zero(t, calls)

	assert.ErrorIs(t, f.RegisterVarReceiver(n, "x", func(context.Context, any) error { return nil }), flow.ErrNodeNotFound)
}
