package flow

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/flowcore/internal/nodeid"
)

// Kind distinguishes value-carrying data ports from pulse-carrying exec ports.
type Kind int

const (
	// Data ports cache the last value written to them.
	Data Kind = iota
	// Exec ports carry activation pulses and hold no value.
	Exec
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Exec:
		return "exec"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String. The empty string means Data.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "data":
		return Data, nil
	case "exec":
		return Exec, nil
	default:
		return Data, fmt.Errorf("unknown port kind %q", s)
	}
}

// Direction is a port's direction relative to its node.
type Direction = nodeid.Dir

const (
	Input  = nodeid.In
	Output = nodeid.Out
)

// PortConfig is the blueprint of one port.
type PortConfig struct {
	Kind  Kind
	Label string
	// Default seeds an input's cache when the port is created. Ignored for
	// outputs and exec ports.
	Default any
	// Hint is consumed only by presentation layers, e.g. a widget name.
	Hint string
}

// Port is a named terminal owned by exactly one node.
type Port struct {
	node  *Node
	dir   Direction
	index int
	cfg   PortConfig
	val   any
	set   bool
	conns []*Connection
}

func newPort(n *Node, dir Direction, index int, cfg PortConfig) *Port {
	p := &Port{node: n, dir: dir, index: index, cfg: cfg}
	if dir == Input && cfg.Kind == Data && cfg.Default != nil {
		p.val, p.set = cfg.Default, true
	}
	return p
}

func (p *Port) Node() *Node { return p.node }
func (p *Port) Direction() Direction { return p.dir }
func (p *Port) Kind() Kind { return p.cfg.Kind }
func (p *Port) Label() string { return p.cfg.Label }
func (p *Port) Config() PortConfig { return p.cfg }

// Index is the port's current position. It shifts when earlier ports are
// removed.
func (p *Port) Index() int { return p.index }

// Value returns the cached value and whether one has ever been written.
// Exec ports never hold a value.
func (p *Port) Value() (any, bool) {
	return p.val, p.set
}

// Connections returns the port's connections in insertion order.
func (p *Port) Connections() []*Connection {
	return slices.Clone(p.conns)
}

// Connected reports whether any connection touches the port.
func (p *Port) Connected() bool {
	return len(p.conns) > 0
}

// Ref returns the positional address of the port.
func (p *Port) Ref() nodeid.PortRef {
	return nodeid.PortRef{Node: p.node.id, Dir: p.dir, Index: p.index}
}

func (p *Port) String() string {
	return p.Ref().String()
}

func (p *Port) store(v any) {
	p.val, p.set = v, true
}

func (p *Port) detach(c *Connection) {
	p.conns = slices.DeleteFunc(p.conns, func(x *Connection) bool { return x == c })
}
