package flow

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/flowcore/internal/nodeid"
)

var (
	// ErrInvalidEndpoint rejects a malformed connect request: mismatched
	// directions or kinds, a self-loop, or ports outside this flow.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrPortOccupied reports a fan-in violation under RejectOnConnect.
	ErrPortOccupied = errors.New("port occupied")
	// ErrUnknownNodeType reports a type identifier missing from the registry.
	ErrUnknownNodeType = errors.New("unknown node type")
	// ErrDanglingConnection reports a snapshot connection whose endpoint
	// cannot be resolved.
	ErrDanglingConnection = errors.New("dangling connection")
	// ErrRecursiveDefinition reports a function unit that contains itself.
	ErrRecursiveDefinition = errors.New("recursive definition")
	// ErrNodeBehavior matches every *NodeBehaviorError via errors.Is.
	ErrNodeBehavior = errors.New("node behavior failed")
	// ErrStaticPorts rejects port changes on a type without dynamic ports.
	ErrStaticPorts = errors.New("node type has static ports")
	// ErrNodeNotFound reports a node that is not owned by the flow.
	ErrNodeNotFound = errors.New("node not found")
	// ErrPortNotFound reports a port index outside the node's port list.
	ErrPortNotFound = errors.New("port not found")
)

// NodeBehaviorError wraps a fault raised inside a node's behavior during
// propagation. Input is the triggering input index, or -1.
type NodeBehaviorError struct {
	Flow     string
	NodeID   nodeid.ID
	NodeType string
	Input    int
	Cause    error
}

func (e *NodeBehaviorError) Error() string {
	return fmt.Sprintf("flow %q: node %s (%s) failed on input %d: %v", e.Flow, e.NodeID, e.NodeType, e.Input, e.Cause)
}

// Unwrap exposes the original cause.
func (e *NodeBehaviorError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrNodeBehavior) hold for every NodeBehaviorError.
func (e *NodeBehaviorError) Is(target error) bool {
	return target == ErrNodeBehavior
}
