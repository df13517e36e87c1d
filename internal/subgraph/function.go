package subgraph

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
)

// TypePrefix namespaces function node types, e.g. "fn.add".
const TypePrefix = "fn."

// TypeID returns the node type identifier of the named function.
func TypeID(name string) string {
	return TypePrefix + name
}

// FunctionName is the inverse of TypeID.
func FunctionName(typeID string) (string, bool) {
	return strings.CutPrefix(typeID, TypePrefix)
}

// Function pairs a definition flow with the node type that instantiates
// it. Instances are built from the last committed snapshot of the
// definition, so a definition can be edited while instances run elsewhere.
type Function struct {
	def   *flow.Flow
	typ   *flow.NodeType
	types flow.TypeResolver
	conv  config.Converter

	mu   sync.RWMutex
	snap *config.Flow
}

// NewFunction wraps def. Commit must be called before the type is used.
func NewFunction(def *flow.Flow, types flow.TypeResolver, conv config.Converter) *Function {
	fn := &Function{def: def, types: types, conv: conv}
	fn.typ = &flow.NodeType{
		ID:           TypeID(def.Name()),
		Version:      "1",
		Title:        def.Name(),
		Description:  fmt.Sprintf("Runs a private copy of function %q.", def.Name()),
		DynamicPorts: true,
		New:          func() flow.Behavior { return &wrapper{fn: fn} },
	}
	return fn
}

func (fn *Function) Name() string { return fn.def.Name() }
func (fn *Function) Definition() *flow.Flow { return fn.def }
func (fn *Function) Type() *flow.NodeType { return fn.typ }

// Commit snapshots the definition flow. It must run on the goroutine that
// owns the definition.
func (fn *Function) Commit() error {
	snap, err := flow.Serialize(fn.def, fn.conv)
	if err != nil {
		return fmt.Errorf("function %q: %w", fn.Name(), err)
	}
	fn.mu.Lock()
	fn.snap = snap
	fn.mu.Unlock()
	return nil
}

// Snapshot returns the last committed snapshot.
func (fn *Function) Snapshot() *config.Flow {
	fn.mu.RLock()
	defer fn.mu.RUnlock()
	return fn.snap
}

// References lists the functions the committed definition uses directly or
// through nested function nodes.
func (fn *Function) References() []string {
	snap := fn.Snapshot()
	if snap == nil {
		return nil
	}
	return References(snap)
}

// References lists the function names used by function nodes in rec,
// including those inside embedded subgraphs. Each name appears once.
func References(rec *config.Flow) []string {
	var names []string
	var walk func(*config.Flow)
	walk = func(f *config.Flow) {
		for _, n := range f.Nodes {
			if name, ok := FunctionName(n.Type); ok && !slices.Contains(names, name) {
				names = append(names, name)
			}
			if n.Subgraph != nil {
				walk(n.Subgraph)
			}
		}
	}
	walk(rec)
	return names
}

// Instantiate builds a fresh inner flow from the committed snapshot.
func (fn *Function) Instantiate(ctx context.Context) (*flow.Flow, error) {
	name := fn.Name()
	if slices.Contains(stackFrom(ctx), name) {
		return nil, fmt.Errorf("%w: function %q contains itself", flow.ErrRecursiveDefinition, name)
	}
	snap := fn.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("function %q has not been committed", name)
	}
	ctxlog.FromContext(ctx).Debug("Instantiating function.", "function", name, "nodes", len(snap.Nodes))
	return flow.Deserialize(withFrame(ctx, name), snap, fn.types, fn.conv)
}

type stackKey struct{}

func stackFrom(ctx context.Context) []string {
	s, _ := ctx.Value(stackKey{}).([]string)
	return s
}

func withFrame(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, stackKey{}, append(slices.Clone(stackFrom(ctx)), name))
}

// Boundaries finds the input and output boundary nodes of f. Either may be
// nil.
func Boundaries(f *flow.Flow) (in, out *flow.Node) {
	for _, n := range f.Nodes() {
		switch n.Type().ID {
		case InputTypeID:
			if in == nil {
				in = n
			}
		case OutputTypeID:
			if out == nil {
				out = n
			}
		}
	}
	return in, out
}
