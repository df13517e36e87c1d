// Package rand provides the "rand" node: a random number source bounded by
// its input.
package rand

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/values"
)

// TypeID is the registry identifier of the node type.
const TypeID = "rand"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Source seeds the generator. Nil uses the global source.
	Source rand.Source
}

// lockedSource serializes access to a Source shared by every instance of
// the type. Flows run on separate goroutines.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

// NodeType builds the node type definition.
func (m *Module) NodeType() *flow.NodeType {
	var src rand.Source
	if m.Source != nil {
		src = &lockedSource{src: m.Source}
	}
	return &flow.NodeType{
		ID:          TypeID,
		Version:     "1",
		Title:       "Rand",
		Description: "Generates a random number in [0, max).",
		Color:       "#fcba03",
		Inputs:      []flow.PortConfig{{Kind: flow.Data, Label: "max", Default: 1, Hint: "number"}},
		Outputs:     []flow.PortConfig{{Kind: flow.Data, Label: "value"}},
		New: func() flow.Behavior {
			var rng *rand.Rand
			if src != nil {
				rng = rand.New(src)
			}
			return flow.BehaviorFunc(func(ctx context.Context, n *flow.Node, inp int) error {
				max, err := values.Float(n.InputValue(0))
				if err != nil {
					return fmt.Errorf("max: %w", err)
				}
				var r float64
				if rng != nil {
					r = rng.Float64()
				} else {
					r = rand.Float64()
				}
				return n.SetOutput(ctx, 0, r*max)
			})
		},
	}
}

// Register registers the node type with the registry.
func (m *Module) Register(r *registry.Registry) error {
	return r.RegisterType(m.NodeType())
}
