// internal/nodeid/address.go
package nodeid

import "fmt"

// String formats the node id in its canonical `n<id>` form.
func (id ID) String() string {
	return fmt.Sprintf("n%d", int(id))
}

// String serializes the PortRef into its canonical representation.
func (r PortRef) String() string {
	return fmt.Sprintf("%s.%s[%d]", r.Node, r.Dir, r.Index)
}
