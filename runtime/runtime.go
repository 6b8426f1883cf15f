// Package runtime wraps a StateMachine in a goroutine that serializes every
// call to it. The engine itself is single-threaded by contract; this package
// provides the external serialization concurrent callers would otherwise have
// to build themselves.
package runtime

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/comalice/hsmx"
)

// EventSource feeds externally produced events into a Runtime. The pump stops
// when the source's channel is closed.
type EventSource interface {
	Events() <-chan hsmx.Event
}

type envelope struct {
	event hsmx.Event
	done  chan struct{}
}

// Runtime owns one StateMachine, initializes it on Start, and processes
// queued events one at a time until the context is cancelled or Stop is
// called, at which point the machine is unwound.
type Runtime struct {
	machine *hsmx.StateMachine
	root    hsmx.StateFactory
	owner   any

	events chan envelope
	source EventSource
	logger *zap.Logger

	mu      sync.Mutex // guards machine access between loop and accessors
	cancel  context.CancelFunc
	stopped chan struct{}
	started bool
}

// Option applies configuration to a Runtime via functional options.
type Option func(*Runtime)

// WithLogger sets the runtime's logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithQueueSize sets the event queue buffer size (default 64).
func WithQueueSize(size int) Option {
	return func(r *Runtime) {
		if size > 0 {
			r.events = make(chan envelope, size)
		}
	}
}

// WithEventSource attaches a source whose events are pumped into the machine.
func WithEventSource(source EventSource) Option {
	return func(r *Runtime) {
		r.source = source
	}
}

// New creates a runtime around an uninitialized machine. The root factory and
// owner are handed to the machine's Initialize when the runtime starts.
func New(machine *hsmx.StateMachine, root hsmx.StateFactory, owner any, opts ...Option) *Runtime {
	r := &Runtime{
		machine: machine,
		root:    root,
		owner:   owner,
		events:  make(chan envelope, 64),
		logger:  zap.NewNop(),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start initializes the machine and launches the processing goroutine.
// It returns an error if the runtime was already started.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("runtime already started")
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.machine.Initialize(r.root, r.owner)

	go r.loop(ctx)
	if r.source != nil {
		go r.pump()
	}
	return nil
}

func (r *Runtime) loop(ctx context.Context) {
	defer close(r.stopped)
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.machine.Stop()
			r.mu.Unlock()
			return
		case env := <-r.events:
			r.mu.Lock()
			r.machine.ProcessEvent(env.event)
			r.mu.Unlock()
			if env.done != nil {
				close(env.done)
			}
		}
	}
}

// pump forwards source events into the queue until the source closes.
func (r *Runtime) pump() {
	for event := range r.source.Events() {
		if err := r.Send(event); err != nil {
			r.logger.Warn("dropping source event",
				zap.String("event", string(event.Kind())),
				zap.Error(err))
		}
	}
}

// Send queues an event for asynchronous processing. Non-blocking; returns an
// error on queue backpressure.
func (r *Runtime) Send(event hsmx.Event) error {
	select {
	case r.events <- envelope{event: event}:
		return nil
	default:
		return errors.New("event queue full (backpressure)")
	}
}

// SendSync queues an event and blocks until the machine has fully processed
// it, or the context is cancelled.
func (r *Runtime) SendSync(ctx context.Context, event hsmx.Event) error {
	done := make(chan struct{})
	select {
	case r.events <- envelope{event: event, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the machine's active state kinds, root first.
func (r *Runtime) Active() []hsmx.StateKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Active()
}

// Snapshot captures the machine's current snapshot.
func (r *Runtime) Snapshot() hsmx.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Snapshot()
}

// Stop cancels the processing loop and waits for the machine to unwind.
// Safe to call multiple times; a never-started runtime stops trivially.
func (r *Runtime) Stop() error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	<-r.stopped
	return nil
}
