package notify

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
)

// Sink receives flow notifications.
type Sink interface {
	Notify(ctx context.Context, e Event)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

// Multi fans events out to every sink, in order.
type Multi []Sink

// Notify forwards e to each sink.
func (m Multi) Notify(ctx context.Context, e Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, e)
		}
	}
}

// Channel hands events to another goroutine through a buffered channel. A
// full buffer never blocks the flow: the event is dropped and counted.
type Channel struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewChannel creates a Channel sink with the given buffer size.
func NewChannel(size int) *Channel {
	if size <= 0 {
		size = 1
	}
	return &Channel{ch: make(chan Event, size)}
}

// Notify enqueues e or drops it when the buffer is full.
func (c *Channel) Notify(ctx context.Context, e Event) {
	select {
	case c.ch <- e:
	default:
		c.dropped.Add(1)
		ctxlog.FromContext(ctx).Warn("Notification dropped, channel full.", "kind", e.Kind.String(), "flow", e.Flow)
	}
}

// Events returns the receive side of the channel.
func (c *Channel) Events() <-chan Event {
	return c.ch
}

// Dropped reports how many events were discarded because the buffer was full.
func (c *Channel) Dropped() int64 {
	return c.dropped.Load()
}

// Logger writes every event as a debug line.
type Logger struct {
	Level slog.Level
}

// Notify logs e through the logger carried by ctx.
func (l Logger) Notify(ctx context.Context, e Event) {
	logger := ctxlog.FromContext(ctx)
	level := l.Level
	if e.Kind == PropagationError {
		level = slog.LevelError
	}
	args := make([]any, 0, 8)
	for k, v := range e.Fields() {
		if k == "kind" {
			continue
		}
		args = append(args, k, v)
	}
	logger.Log(ctx, level, "Flow event: "+e.Kind.String(), args...)
}
