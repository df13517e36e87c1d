package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/flowcore/internal/config"
	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/flow"
	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/specialistvlad/flowcore/internal/notify"
	"github.com/specialistvlad/flowcore/internal/registry"
	"github.com/specialistvlad/flowcore/internal/runner"
	"github.com/specialistvlad/flowcore/internal/subgraph"
)

var (
	// ErrDuplicateFlow rejects a flow or function name already in use.
	ErrDuplicateFlow = errors.New("duplicate flow")
	// ErrFlowNotFound reports an unknown flow or function name.
	ErrFlowNotFound = errors.New("flow not found")
	// ErrFunctionInUse rejects deleting a function that other flows use.
	ErrFunctionInUse = errors.New("function in use")
)

// Option configures a Session.
type Option func(*Session)

// WithSink sends the notifications of every flow to s.
func WithSink(s notify.Sink) Option { return func(ss *Session) { ss.sink = s } }

// WithConverter replaces the default value converter.
func WithConverter(c config.Converter) Option { return func(s *Session) { s.conv = c } }

// WithModules registers node type modules at construction.
func WithModules(mods ...registry.Module) Option {
	return func(s *Session) { s.mods = append(s.mods, mods...) }
}

// WithQueueSize sets how many commands may wait for a busy flow worker.
func WithQueueSize(n int) Option { return func(s *Session) { s.queue = n } }

type entry struct {
	flow *flow.Flow
	run  *runner.Runner
	// fn is set for function definitions.
	fn *subgraph.Function
}

// Session is safe for concurrent use. Flows themselves are not; reach them
// through Do.
type Session struct {
	reg  *registry.Registry
	conv config.Converter
	sink notify.Sink
	mods []registry.Module

	queue int

	mu      sync.RWMutex
	entries map[string]*entry
	flows   []string
	funcs   []string
	group   *runner.Group
	stopped bool
}

// New creates a session with the boundary node types and the given modules
// registered.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	s := &Session{
		reg:     registry.New(),
		conv:    hcl.NewConverter(),
		sink:    notify.Discard,
		queue:   16,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.reg.RegisterTypes(subgraph.InputType, subgraph.OutputType); err != nil {
		return nil, err
	}
	if err := s.reg.RegisterModules(ctx, s.mods...); err != nil {
		return nil, err
	}
	if err := s.reg.ValidateRegistry(ctx, s.conv); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Registry() *registry.Registry { return s.reg }
func (s *Session) Converter() config.Converter { return s.conv }

// RegisterNodeTypes adds node types to the registry.
func (s *Session) RegisterNodeTypes(types ...*flow.NodeType) error {
	return s.reg.RegisterTypes(types...)
}

// UnregisterNodeTypes removes node types by identifier. Function types are
// removed with DeleteFunction instead and are skipped here.
func (s *Session) UnregisterNodeTypes(ids ...string) {
	for _, id := range ids {
		if _, ok := subgraph.FunctionName(id); ok {
			continue
		}
		s.reg.Unregister(id)
	}
}

func (s *Session) newEntry(f *flow.Flow, fn *subgraph.Function) *entry {
	e := &entry{flow: f, run: runner.New(f.Name(), s.queue), fn: fn}
	if s.group != nil {
		s.group.Go(e.run)
	}
	return e
}

// add registers e under its flow's name. s.mu must be held.
func (s *Session) add(e *entry) {
	name := e.flow.Name()
	s.entries[name] = e
	if e.fn != nil {
		s.funcs = append(s.funcs, name)
	} else {
		s.flows = append(s.flows, name)
	}
}

func (s *Session) nameFree(name string) error {
	if name == "" {
		return fmt.Errorf("flow name must not be empty")
	}
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateFlow, name)
	}
	return nil
}

// CreateFlow adds an empty flow.
func (s *Session) CreateFlow(ctx context.Context, name string, opts ...flow.Option) (*flow.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nameFree(name); err != nil {
		return nil, err
	}
	f := flow.New(name, s.flowOptions(opts...)...)
	s.add(s.newEntry(f, nil))
	ctxlog.FromContext(ctx).Debug("Flow created.", ctxlog.FlowAttr(name), "uid", f.UID())
	return f, nil
}

func (s *Session) flowOptions(opts ...flow.Option) []flow.Option {
	return append([]flow.Option{flow.WithSink(s.sink), flow.WithPlacementCheck(s.flowCheck)}, opts...)
}

// CreateFunction adds a function definition with one input and one output
// boundary and registers the node type that instantiates it.
func (s *Session) CreateFunction(ctx context.Context, name string) (*subgraph.Function, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nameFree(name); err != nil {
		return nil, err
	}

	def := flow.New(name, flow.WithSink(s.sink))
	for _, t := range []*flow.NodeType{subgraph.InputType, subgraph.OutputType} {
		if _, err := def.AddNode(ctx, t); err != nil {
			return nil, fmt.Errorf("function %q: %w", name, err)
		}
	}
	def.SetPlacementCheck(s.functionCheck(def))

	fn := subgraph.NewFunction(def, s.reg, s.conv)
	if err := fn.Commit(); err != nil {
		return nil, err
	}
	if err := s.reg.RegisterType(fn.Type()); err != nil {
		return nil, fmt.Errorf("function %q: %w", name, err)
	}
	s.add(s.newEntry(def, fn))
	ctxlog.FromContext(ctx).Debug("Function created.", "function", name, "type", fn.Type().ID)
	return fn, nil
}

// RenameFlow renames an ordinary flow. Functions cannot be renamed because
// their name is the identifier of their node type.
func (s *Session) RenameFlow(ctx context.Context, from, to string) error {
	s.mu.Lock()
	e, ok := s.entries[from]
	switch {
	case !ok:
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrFlowNotFound, from)
	case e.fn != nil:
		s.mu.Unlock()
		return fmt.Errorf("function %q cannot be renamed", from)
	case from == to:
		s.mu.Unlock()
		return nil
	}
	if err := s.nameFree(to); err != nil {
		s.mu.Unlock()
		return err
	}
	s.rekey(e, from, to)
	s.mu.Unlock()

	// The flow itself is renamed on its own worker.
	err := e.run.Do(ctx, func(context.Context) error {
		e.flow.SetName(to)
		return nil
	})
	if err != nil {
		s.mu.Lock()
		s.rekey(e, to, from)
		s.mu.Unlock()
		return err
	}
	ctxlog.FromContext(ctx).Debug("Flow renamed.", "from", from, "to", to)
	return nil
}

func (s *Session) rekey(e *entry, from, to string) {
	delete(s.entries, from)
	s.entries[to] = e
	if i := slices.Index(s.flows, from); i >= 0 {
		s.flows[i] = to
	}
}

// DeleteFlow removes an ordinary flow.
func (s *Session) DeleteFlow(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok || e.fn != nil {
		return fmt.Errorf("%w: %q", ErrFlowNotFound, name)
	}
	delete(s.entries, name)
	s.flows = slices.DeleteFunc(s.flows, func(x string) bool { return x == name })
	ctxlog.FromContext(ctx).Debug("Flow deleted.", ctxlog.FlowAttr(name))
	return nil
}

// DeleteFunction removes a function definition and its node type. It fails
// with ErrFunctionInUse while any flow or other definition holds a node of
// that type.
func (s *Session) DeleteFunction(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	others := make(map[string]*entry, len(s.entries))
	for other, oe := range s.entries {
		if other != name {
			others[other] = oe
		}
	}
	s.mu.RUnlock()
	if !ok || e.fn == nil {
		return fmt.Errorf("%w: function %q", ErrFlowNotFound, name)
	}

	typeID := subgraph.TypeID(name)
	for other, oe := range others {
		var used bool
		err := oe.run.Do(ctx, func(context.Context) error {
			used = slices.ContainsFunc(oe.flow.Nodes(), func(n *flow.Node) bool { return n.Type().ID == typeID })
			return nil
		})
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: %q is used by %q", ErrFunctionInUse, name, other)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[name] != e {
		return fmt.Errorf("%w: function %q", ErrFlowNotFound, name)
	}
	s.reg.Unregister(typeID)
	delete(s.entries, name)
	s.funcs = slices.DeleteFunc(s.funcs, func(x string) bool { return x == name })
	ctxlog.FromContext(ctx).Debug("Function deleted.", "function", name)
	return nil
}

// Flow returns a flow or function definition by name. Use Do to touch it.
func (s *Session) Flow(name string) (*flow.Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.flow, true
}

// Function returns a function by name.
func (s *Session) Function(name string) (*subgraph.Function, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || e.fn == nil {
		return nil, false
	}
	return e.fn, true
}

// Flows lists ordinary flows in creation order.
func (s *Session) Flows() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.flows)
}

// Functions lists function definitions in creation order.
func (s *Session) Functions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.funcs)
}

// Do runs cmd with exclusive access to the named flow. For a function
// definition the snapshot used by new instances is committed afterwards,
// even when cmd fails part way.
func (s *Session) Do(ctx context.Context, name string, cmd func(ctx context.Context, f *flow.Flow) error) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrFlowNotFound, name)
	}
	return e.run.Do(ctx, func(ctx context.Context) error {
		err := cmd(ctx, e.flow)
		if e.fn != nil {
			err = errors.Join(err, e.fn.Commit())
		}
		return err
	})
}

// Start moves every flow onto its own worker goroutine until ctx is
// cancelled or Stop is called. Flows created later start immediately. A
// session can be started once.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.group != nil || s.stopped {
		return
	}
	s.group = runner.NewGroup(ctx)
	for _, e := range s.entries {
		s.group.Go(e.run)
	}
}

// Stop halts the workers started by Start. Afterwards Do runs commands on
// the caller's goroutine.
func (s *Session) Stop() error {
	s.mu.Lock()
	g := s.group
	s.group = nil
	if g != nil {
		s.stopped = true
	}
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Stop()
}
