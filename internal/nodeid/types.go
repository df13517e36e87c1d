// internal/nodeid/types.go
package nodeid

import "fmt"

// ID is the flow-unique identifier of a node.
type ID int

// Dir is the direction of a port relative to its node.
type Dir int

const (
	// In marks an input port.
	In Dir = iota
	// Out marks an output port.
	Out
)

// String returns the short name used in port references.
func (d Dir) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return fmt.Sprintf("dir(%d)", int(d))
	}
}

// PortRef identifies one port by owning node, direction and position.
type PortRef struct {
	Node  ID
	Dir   Dir
	Index int
}

// Counter hands out increasing node ids. The zero value starts at 0.
type Counter struct {
	next ID
}

// Next returns the current count and advances the counter.
func (c *Counter) Next() ID {
	id := c.next
	c.next++
	return id
}

// Peek returns the id the next call to Next would return.
func (c *Counter) Peek() ID {
	return c.next
}

// SetCount moves the counter forward so that Next returns n. Moving it
// backwards would hand out ids that may already be in use, so it is refused.
func (c *Counter) SetCount(n ID) error {
	if n < c.next {
		return fmt.Errorf("decreasing id counter from %d to %d is not allowed", c.next, n)
	}
	c.next = n
	return nil
}
