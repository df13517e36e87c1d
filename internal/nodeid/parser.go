// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// refRegex matches `n3.in[0]`, `n3.out[12]` and the bare node form `n3`.
var refRegex = regexp.MustCompile(`^n(\d+)(?:\.(in|out)\[(\d+)\])?$`)

// ParseNode parses a bare node reference such as `n3` (the `n` is optional).
func ParseNode(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("node reference cannot be empty")
	}
	num := strings.TrimPrefix(raw, "n")
	id, err := strconv.Atoi(num)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid node reference: %q", raw)
	}
	return ID(id), nil
}

// Parse creates a PortRef from its canonical string representation.
func Parse(raw string) (PortRef, error) {
	if raw == "" {
		return PortRef{}, fmt.Errorf("port reference cannot be empty")
	}

	matches := refRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if matches == nil {
		return PortRef{}, fmt.Errorf("invalid port reference format: %q", raw)
	}
	if matches[2] == "" {
		return PortRef{}, fmt.Errorf("port reference %q names a node but no port", raw)
	}

	node, err := strconv.Atoi(matches[1])
	if err != nil {
		// Unreachable due to regex `\d+`
		return PortRef{}, fmt.Errorf("internal error parsing node id: %w", err)
	}
	index, err := strconv.Atoi(matches[3])
	if err != nil {
		return PortRef{}, fmt.Errorf("internal error parsing index: %w", err)
	}

	dir := In
	if matches[2] == "out" {
		dir = Out
	}
	return PortRef{Node: ID(node), Dir: dir, Index: index}, nil
}
