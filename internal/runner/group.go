package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group runs several runners and stops them together.
type Group struct {
	eg     *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewGroup creates a group whose runners stop when ctx is cancelled or
// Stop is called.
func NewGroup(ctx context.Context) *Group {
	ctx, cancel := context.WithCancel(ctx)
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: ctx, cancel: cancel}
}

// Go starts r on its own goroutine.
func (g *Group) Go(r *Runner) {
	g.eg.Go(func() error {
		return r.Run(g.ctx)
	})
}

// Wait blocks until every runner has stopped.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// Stop cancels the group and waits for its runners.
func (g *Group) Stop() error {
	g.cancel()
	return g.eg.Wait()
}
