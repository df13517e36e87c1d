package flow

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/flowcore/internal/notify"
)

// VarReceiver is called synchronously whenever the subscribed variable is
// set.
type VarReceiver func(ctx context.Context, value any) error

type subscription struct {
	node *Node
	recv VarReceiver
}

// Vars returns the variable names in creation order.
func (f *Flow) Vars() []string {
	return slices.Clone(f.varOrder)
}

// GetVar returns the value of a variable. The boolean is false when the
// variable does not exist, which is distinct from a variable holding nil.
func (f *Flow) GetVar(name string) (any, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// SetVar creates or updates a variable and then notifies its receivers in
// subscription order. Receiver faults are reported like node faults.
func (f *Flow) SetVar(ctx context.Context, name string, v any) error {
	if name == "" {
		return fmt.Errorf("variable name must not be empty")
	}
	_, existed := f.vars[name]
	f.storeVar(name, v)

	kind := notify.VariableChanged
	if !existed {
		kind = notify.VariableCreated
	}
	f.emit(ctx, notify.Event{Kind: kind, Variable: name, Value: v})

	subs := slices.Clone(f.subs[name])
	if len(subs) == 0 {
		return nil
	}
	return f.propagate(ctx, func(w *wave) {
		for _, s := range subs {
			recv := s.recv
			f.invoke(ctx, w, s.node, -1, func(ctx context.Context) error {
				if err := recv(ctx, v); err != nil {
					return fmt.Errorf("variable %q: %w", name, err)
				}
				return nil
			})
		}
	})
}

func (f *Flow) storeVar(name string, v any) {
	if _, ok := f.vars[name]; !ok {
		f.varOrder = append(f.varOrder, name)
	}
	f.vars[name] = v
}

// DeleteVar removes a variable. Subscriptions survive and fire again if the
// variable is re-created. It reports whether the variable existed.
func (f *Flow) DeleteVar(ctx context.Context, name string) bool {
	if _, ok := f.vars[name]; !ok {
		return false
	}
	delete(f.vars, name)
	f.varOrder = slices.DeleteFunc(f.varOrder, func(s string) bool { return s == name })
	f.emit(ctx, notify.Event{Kind: notify.VariableDeleted, Variable: name})
	return true
}

// RegisterVarReceiver subscribes n to changes of the named variable. The
// variable need not exist yet. Registering does not invoke recv.
func (f *Flow) RegisterVarReceiver(n *Node, name string, recv VarReceiver) error {
	if n == nil || n.flow != f {
		return ErrNodeNotFound
	}
	if recv == nil {
		return fmt.Errorf("nil receiver for variable %q", name)
	}
	f.subs[name] = append(f.subs[name], subscription{node: n, recv: recv})
	return nil
}

// UnregisterVarReceiver drops every subscription of n to the named
// variable. Absent subscriptions are ignored.
func (f *Flow) UnregisterVarReceiver(n *Node, name string) {
	subs := slices.DeleteFunc(f.subs[name], func(s subscription) bool { return s.node == n })
	if len(subs) == 0 {
		delete(f.subs, name)
		return
	}
	f.subs[name] = subs
}

func (f *Flow) unregisterNode(n *Node) {
	for name := range f.subs {
		f.UnregisterVarReceiver(n, name)
	}
}
