package flow_test

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/stretchr/testify/require"
)

// recorder collects the order in which node behaviors ran.
type recorder struct {
	calls []string
}

func (r *recorder) add(s string) { r.calls = append(r.calls, s) }

// types is a map-backed TypeResolver.
type types map[string]*flow.NodeType

func (t types) NodeType(id string) (*flow.NodeType, bool) {
	nt, ok := t[id]
	return nt, ok
}

func sourceType() *flow.NodeType {
	return &flow.NodeType{
		ID:      "source",
		Version: "1",
		Outputs: []flow.PortConfig{{Kind: flow.Data, Label: "out"}},
	}
}

// relayType copies its single input to its single output and records the
// run under name.
func relayType(id string, rec *recorder) *flow.NodeType {
	return &flow.NodeType{
		ID:      id,
		Version: "1",
		Inputs:  []flow.PortConfig{{Kind: flow.Data, Label: "in"}},
		Outputs: []flow.PortConfig{{Kind: flow.Data, Label: "out"}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
				rec.add(id)
				return n.SetOutput(ctx, 0, n.InputValue(0))
			})
		},
	}
}

// sinkType records every value it receives.
func sinkType(id string, got *[]any) *flow.NodeType {
	return &flow.NodeType{
		ID:     id,
		Inputs: []flow.PortConfig{{Kind: flow.Data, Label: "in"}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
				*got = append(*got, n.InputValue(0))
				return nil
			})
		},
	}
}

// execType has one exec input and two exec outputs. It records its run and
// fires both outputs in order.
func execType(id string, rec *recorder) *flow.NodeType {
	return &flow.NodeType{
		ID:      id,
		Inputs:  []flow.PortConfig{{Kind: flow.Exec}},
		Outputs: []flow.PortConfig{{Kind: flow.Exec}, {Kind: flow.Exec}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
				rec.add(id)
				if err := n.Exec(ctx, 0); err != nil {
					return err
				}
				return n.Exec(ctx, 1)
			})
		},
	}
}

func dynamicType() *flow.NodeType {
	return &flow.NodeType{
		ID:           "dynamic",
		DynamicPorts: true,
		Inputs: []flow.PortConfig{
			{Kind: flow.Data, Label: "a"},
			{Kind: flow.Data, Label: "b"},
			{Kind: flow.Data, Label: "c"},
		},
		Outputs: []flow.PortConfig{{Kind: flow.Data, Label: "out"}},
	}
}

func mustAdd(t *testing.T, f *flow.Flow, nt *flow.NodeType) *flow.Node {
	t.Helper()
	n, err := f.AddNode(context.Background(), nt)
	require.NoError(t, err)
	return n
}

func mustConnect(t *testing.T, f *flow.Flow, a, b *flow.Port) *flow.Connection {
	t.Helper()
	c, err := f.Connect(context.Background(), a, b)
	require.NoError(t, err)
	return c
}
