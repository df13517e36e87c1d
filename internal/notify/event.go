package notify

import (
	"fmt"
	"time"

	"github.com/specialistvlad/flowcore/internal/nodeid"
)

// Kind enumerates the notifications a flow can emit.
type Kind int

const (
	NodeAdded Kind = iota
	NodeRemoved
	ConnectionAdded
	ConnectionRemoved
	PortAdded
	PortRemoved
	PortValueChanged
	VariableCreated
	VariableChanged
	VariableDeleted
	PropagationError
	ModeChanged
)

var kindNames = map[Kind]string{
	NodeAdded:         "node_added",
	NodeRemoved:       "node_removed",
	ConnectionAdded:   "connection_added",
	ConnectionRemoved: "connection_removed",
	PortAdded:         "port_added",
	PortRemoved:       "port_removed",
	PortValueChanged:  "port_value_changed",
	VariableCreated:   "variable_created",
	VariableChanged:   "variable_changed",
	VariableDeleted:   "variable_deleted",
	PropagationError:  "propagation_error",
	ModeChanged:       "mode_changed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one notification. Fields that do not apply to a Kind are left at
// their zero values.
type Event struct {
	Kind Kind
	Flow string
	Time time.Time

	Node     nodeid.ID
	NodeType string

	// Port is set for port and port value events. For connection events Port
	// is the output end and Peer the input end.
	Port *nodeid.PortRef
	Peer *nodeid.PortRef

	Variable string
	Value    any
	Err      error
}

// Fields flattens the event into a map suitable for JSON-style transports.
func (e Event) Fields() map[string]any {
	m := map[string]any{
		"kind": e.Kind.String(),
		"flow": e.Flow,
		"time": e.Time.UTC().Format(time.RFC3339Nano),
	}
	switch e.Kind {
	case NodeAdded, NodeRemoved, PropagationError:
		m["node"] = int(e.Node)
		m["node_type"] = e.NodeType
	}
	if e.Port != nil {
		m["port"] = e.Port.String()
	}
	if e.Peer != nil {
		m["peer"] = e.Peer.String()
	}
	if e.Variable != "" {
		m["variable"] = e.Variable
	}
	if e.Value != nil {
		m["value"] = e.Value
	}
	if e.Err != nil {
		m["error"] = e.Err.Error()
	}
	return m
}
