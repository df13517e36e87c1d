package dag

import "sync"

// Graph is a collection of nodes and their dependencies. All operations on
// the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	// order keeps insertion order so that traversals are deterministic.
	order []string
}

// node is a single vertex. It is un-exported to enforce interaction with
// the graph via string IDs.
type node struct {
	id string
	// deps holds the nodes this node depends on (predecessors).
	deps map[string]*node
}
