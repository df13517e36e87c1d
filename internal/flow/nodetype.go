package flow

import (
	"context"

	"github.com/specialistvlad/flowcore/internal/config"
)

// NodeType is the immutable definition every instance of a node kind is
// built from.
type NodeType struct {
	// ID is the registry key, e.g. "rand" or "fn.add".
	ID          string
	Version     string
	Title       string
	Description string
	// Color is a presentation hint only.
	Color   string
	Inputs  []PortConfig
	Outputs []PortConfig
	// DynamicPorts allows ports to be added and removed per instance.
	DynamicPorts bool
	// UpdateOnPlace runs one update immediately after the node is placed.
	UpdateOnPlace bool
	// New builds the behavior for one instance. Nil means a node that does
	// nothing when updated.
	New func() Behavior
}

// Behavior is the per-instance logic of a node. Update is called with the
// index of the input that triggered it, or -1 for an untargeted update.
type Behavior interface {
	Update(ctx context.Context, n *Node, inp int) error
}

// BehaviorFunc adapts a plain function to Behavior.
type BehaviorFunc func(ctx context.Context, n *Node, inp int) error

func (f BehaviorFunc) Update(ctx context.Context, n *Node, inp int) error {
	return f(ctx, n, inp)
}

// Placer is implemented by behaviors that need setup once the node is part
// of a flow, e.g. to subscribe to a variable.
type Placer interface {
	Placed(ctx context.Context, n *Node) error
}

// Remover is implemented by behaviors that release resources when their
// node leaves the flow.
type Remover interface {
	Removed(ctx context.Context, n *Node)
}

// Stateful is implemented by behaviors carrying state that must survive a
// save and load. The map holds plain values only.
type Stateful interface {
	State() map[string]any
	SetState(state map[string]any) error
}

// PortHook observes port edits on dynamic nodes. An error from PortAdded
// rolls the addition back; an error from PortRemoved keeps the port.
type PortHook interface {
	PortAdded(ctx context.Context, n *Node, p *Port) error
	PortRemoved(ctx context.Context, n *Node, dir Direction, index int) error
}

// SubgraphHolder is implemented by behaviors that own an inner flow.
type SubgraphHolder interface {
	Inner() *Flow
	RestoreInner(ctx context.Context, rec *config.Flow, types TypeResolver, conv config.Converter) error
}

// TypeResolver looks node types up by identifier.
type TypeResolver interface {
	NodeType(id string) (*NodeType, bool)
}

// Action is a named operation a node exposes to its host.
type Action func(ctx context.Context, n *Node) error

type nopBehavior struct{}

func (nopBehavior) Update(context.Context, *Node, int) error { return nil }

func (t *NodeType) newBehavior() Behavior {
	if t.New == nil {
		return nopBehavior{}
	}
	if b := t.New(); b != nil {
		return b
	}
	return nopBehavior{}
}
