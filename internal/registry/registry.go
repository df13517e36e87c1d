package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
)

// ErrDuplicateNodeType rejects a second, different definition under an
// identifier that is already registered.
var ErrDuplicateNodeType = errors.New("duplicate node type")

// Module is the interface that all node modules implement to be registered.
type Module interface {
	Register(r *Registry) error
}

// Registry holds the node types known to one session. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*flow.NodeType
	order []string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{types: make(map[string]*flow.NodeType)}
}

// RegisterType adds t. Registering the same definition again is a no-op.
func (r *Registry) RegisterType(t *flow.NodeType) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("node type must have an identifier")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[t.ID]; ok {
		if existing == t {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateNodeType, t.ID)
	}
	r.types[t.ID] = t
	r.order = append(r.order, t.ID)
	return nil
}

// RegisterTypes registers each type in turn and stops at the first error.
func (r *Registry) RegisterTypes(types ...*flow.NodeType) error {
	for _, t := range types {
		if err := r.RegisterType(t); err != nil {
			return err
		}
	}
	return nil
}

// MustRegisterType is RegisterType for static definitions; it panics on
// error.
func (r *Registry) MustRegisterType(t *flow.NodeType) {
	if err := r.RegisterType(t); err != nil {
		panic(err)
	}
}

// Unregister removes a type and reports whether it was present. Nodes
// already placed keep their definition.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[id]; !ok {
		return false
	}
	delete(r.types, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return true
}

// NodeType looks a type up by identifier. It makes the registry a
// flow.TypeResolver.
func (r *Registry) NodeType(id string) (*flow.NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	return t, ok
}

// Types returns all types in registration order.
func (r *Registry) Types() []*flow.NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*flow.NodeType, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.types[id])
	}
	return out
}

// RegisterModules registers every module in order.
func (r *Registry) RegisterModules(ctx context.Context, mods ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range mods {
		before := len(r.Types())
		if err := m.Register(r); err != nil {
			return fmt.Errorf("registering module %T: %w", m, err)
		}
		logger.Debug("Registered module.", "module", fmt.Sprintf("%T", m), "types", len(r.Types())-before)
	}
	return nil
}
