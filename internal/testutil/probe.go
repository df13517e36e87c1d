package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
)

// ProbeTypeID is the identifier of the probe node type.
const ProbeTypeID = "probe"

// Call is one recorded probe update.
type Call struct {
	Node  int
	Input int
	Value any
}

// ProbeModule registers a node type with one data input and one data
// output. Each update records the triggering input and the input value,
// then copies the value to the output.
type ProbeModule struct {
	mu    sync.Mutex
	calls []Call
}

func (m *ProbeModule) Register(r *registry.Registry) error {
	return r.RegisterType(&flow.NodeType{
		ID:      ProbeTypeID,
		Version: "1",
		Inputs:  []flow.PortConfig{{Kind: flow.Data, Label: "in"}},
		Outputs: []flow.PortConfig{{Kind: flow.Data, Label: "out"}},
		New: func() flow.Behavior {
			return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
				v := n.InputValue(0)
				m.mu.Lock()
				m.calls = append(m.calls, Call{Node: int(n.ID()), Input: inp, Value: v})
				m.mu.Unlock()
				return n.SetOutput(ctx, 0, v)
			})
		},
	})
}

// Calls returns a copy of the recorded updates.
func (m *ProbeModule) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}
