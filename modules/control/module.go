// Package control provides exec-flow entry and branching nodes.
package control

import (
	"context"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/values"
)

const (
	StartTypeID  = "start"
	BranchTypeID = "branch"

	// TriggerAction is the action exposed by start nodes.
	TriggerAction = "trigger"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type start struct{}

func (start) Update(ctx context.Context, n *flow.Node, _ int) error {
	return n.Exec(ctx, 0)
}

func (s start) Placed(_ context.Context, n *flow.Node) error {
	n.SetAction(TriggerAction, func(ctx context.Context, n *flow.Node) error {
		return s.Update(ctx, n, -1)
	})
	return nil
}

// branch fires "true" or "false" depending on its condition input. Updates
// from the condition alone do nothing.
func branch(ctx context.Context, n *flow.Node, inp int) error {
	if inp != 0 {
		return nil
	}
	if values.Truthy(n.InputValue(1)) {
		return n.Exec(ctx, 0)
	}
	return n.Exec(ctx, 1)
}

func StartType() *flow.NodeType {
	return &flow.NodeType{
		ID:          StartTypeID,
		Version:     "1",
		Title:       "Start",
		Description: "Entry point of an exec chain.",
		Color:       "#e05858",
		Outputs:     []flow.PortConfig{{Kind: flow.Exec, Label: "start"}},
		New:         func() flow.Behavior { return start{} },
	}
}

func BranchType() *flow.NodeType {
	return &flow.NodeType{
		ID:          BranchTypeID,
		Version:     "1",
		Title:       "Branch",
		Description: "Continues on true or false.",
		Color:       "#e05858",
		Inputs: []flow.PortConfig{
			{Kind: flow.Exec, Label: "in"},
			{Kind: flow.Data, Label: "condition", Hint: "bool"},
		},
		Outputs: []flow.PortConfig{
			{Kind: flow.Exec, Label: "true"},
			{Kind: flow.Exec, Label: "false"},
		},
		New: func() flow.Behavior { return flow.BehaviorFunc(branch) },
	}
}

// Register registers the node types with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterTypes(StartType(), BranchType())
}
