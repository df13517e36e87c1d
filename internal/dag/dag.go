package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is returned when the graph contains a dependency cycle,
// including a node depending on itself.
var ErrCycle = errors.New("dependency cycle")

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node with the given ID. Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{id: id, deps: make(map[string]*node)}
	g.order = append(g.order, id)
}

// AddEdge records that toID depends on fromID. Both nodes must exist. An
// edge from a node to itself is a cycle.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("%w: %s depends on itself", ErrCycle, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if _, dup := toNode.deps[fromID]; dup {
		return nil
	}
	toNode.deps[fromID] = fromNode
	return nil
}

// DetectCycles returns an error wrapping ErrCycle that names the nodes of
// the first cycle found.
func (g *Graph) DetectCycles() error {
	_, err := g.Sort()
	return err
}

// Sort returns every node ID ordered so that each node comes after all of
// its dependencies. Independent nodes keep insertion order.
func (g *Graph) Sort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Depth-first search with three colours: permanent nodes are finished,
	// temporary nodes are on the current path.
	permanent := make(map[string]bool, len(g.nodes))
	temporary := make(map[string]bool)
	var path []string
	sorted := make([]string, 0, len(g.nodes))

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			start := slices.Index(path, n.id)
			cycle := append(slices.Clone(path[start:]), n.id)
			return fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
		}
		temporary[n.id] = true
		path = append(path, n.id)

		deps := make([]string, 0, len(n.deps))
		for id := range n.deps {
			deps = append(deps, id)
		}
		slices.SortFunc(deps, func(a, b string) int {
			return slices.Index(g.order, a) - slices.Index(g.order, b)
		})
		for _, id := range deps {
			if err := visit(n.deps[id]); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
		sorted = append(sorted, n.id)
		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
