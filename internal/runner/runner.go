// Package runner serialises access to a flow. Each flow has one Runner; every
// mutation and propagation wave is submitted through Runner.Do so that no
// two waves interleave on the same flow.
//
// A Runner works in two modes. Before Run is called, or after it returns,
// Do executes the command on the caller's goroutine under the runner's
// mutex. While Run is active, commands are queued and executed one at a
// time on the goroutine that called Run, which keeps a flow on a dedicated
// worker away from its callers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
)

// ErrStopped is returned for a queued command that the worker did not run
// before it stopped.
var ErrStopped = errors.New("runner stopped")

// Command is a unit of work run with exclusive access to the flow.
type Command func(ctx context.Context) error

type request struct {
	ctx context.Context
	cmd Command
	res chan error
}

type ownerKey struct{}

// Runner is a single-consumer command queue.
type Runner struct {
	name string
	mu   sync.Mutex
	reqs chan request

	running atomic.Bool
	started atomic.Bool
	stopped chan struct{}
}

// New creates a runner. queue is the number of commands that may wait
// while the worker is busy; values below 1 mean 1.
func New(name string, queue int) *Runner {
	if queue < 1 {
		queue = 1
	}
	return &Runner{
		name:    name,
		reqs:    make(chan request, queue),
		stopped: make(chan struct{}),
	}
}

func (r *Runner) Name() string { return r.name }

// Running reports whether a worker is consuming commands.
func (r *Runner) Running() bool { return r.running.Load() }

// Do runs cmd with exclusive access and returns its error. Calls made from
// inside a running command execute inline.
func (r *Runner) Do(ctx context.Context, cmd Command) error {
	if owner, _ := ctx.Value(ownerKey{}).(*Runner); owner == r {
		return r.exec(ctx, cmd)
	}
	if !r.running.Load() {
		return r.inline(ctx, cmd)
	}

	req := request{ctx: ctx, cmd: cmd, res: make(chan error, 1)}
	select {
	case r.reqs <- req:
	case <-r.stopped:
		return r.inline(ctx, cmd)
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.res:
		return err
	case <-r.stopped:
		select {
		case err := <-req.res:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) inline(ctx context.Context, cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exec(ctx, cmd)
}

func (r *Runner) exec(ctx context.Context, cmd Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in runner %q: %v", r.name, rec)
		}
	}()
	return cmd(context.WithValue(ctx, ownerKey{}, r))
}

// Run consumes commands until ctx is cancelled. It may be called once; a
// cancelled context is a normal shutdown and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("runner %q already started", r.name)
	}
	logger := ctxlog.FromContext(ctx).With("runner", r.name)
	logger.Debug("Runner started.")

	r.running.Store(true)
	defer func() {
		r.running.Store(false)
		close(r.stopped)
		r.drain()
		logger.Debug("Runner stopped.")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-r.reqs:
			if err := req.ctx.Err(); err != nil {
				req.res <- err
				continue
			}
			r.mu.Lock()
			err := r.exec(req.ctx, req.cmd)
			r.mu.Unlock()
			req.res <- err
		}
	}
}

func (r *Runner) drain() {
	for {
		select {
		case req := <-r.reqs:
			req.res <- ErrStopped
		default:
			return
		}
	}
}
