// Package socketio forwards flow notifications to a socket.io server, which
// is how a remote editing surface observes a flow running in another process.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/flowcore/internal/ctxlog"
	"github.com/specialistvlad/flowcore/internal/notify"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventPrefix is prepended to every notification kind to form the socket.io
// event name, e.g. "flow:node_added".
const EventPrefix = "flow:"

// Config describes the server to connect to.
type Config struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds how long Dial waits for the first connect event.
	// Zero means 15 seconds.
	ConnectTimeout time.Duration
}

// Sink emits each notify.Event to a connected socket.io client.
type Sink struct {
	io        *socket.Socket
	connected atomic.Bool
	sent      atomic.Int64
}

// Dial connects to the server and returns a ready Sink.
func Dial(ctx context.Context, cfg Config) (*Sink, error) {
	logger := ctxlog.FromContext(ctx).With("sink", "socketio", "url", cfg.URL)
	logger.Debug("Connecting notification sink...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("notification URL %q must include scheme and host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	s := &Sink{io: io}
	connectChan := make(chan error, 1)

	io.Once(types.EventName("connect"), func(...any) {
		s.connected.Store(true)
		logger.Info("Notification sink connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})
	io.On(types.EventName("disconnect"), func(...any) {
		s.connected.Store(false)
		logger.Warn("Notification sink disconnected")
	})

	io.Connect()

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return s, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Notify emits e as a JSON-ready map. Events raised while disconnected are
// dropped; the view resynchronises from a snapshot on reconnect.
func (s *Sink) Notify(ctx context.Context, e notify.Event) {
	if !s.connected.Load() {
		ctxlog.FromContext(ctx).Debug("Notification sink offline, event dropped.", "kind", e.Kind.String())
		return
	}
	s.io.Emit(EventPrefix+e.Kind.String(), e.Fields())
	s.sent.Add(1)
}

// Sent reports how many events were emitted.
func (s *Sink) Sent() int64 {
	return s.sent.Load()
}

// Close disconnects the client.
func (s *Sink) Close() error {
	s.connected.Store(false)
	s.io.Disconnect()
	return nil
}
