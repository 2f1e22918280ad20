package registry

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/extension-host/errors"
	"github.com/wippyai/extension-host/extension"
	"github.com/wippyai/extension-host/protocol"
)

// eventBuffer is the capacity of the merged event channel. Forwarders block
// once it fills, which in turn backpressures each session loop.
const eventBuffer = 64

// Event is one response from one extension on the merged stream.
type Event struct {
	Extension string
	Response  protocol.Response
}

// Session is the slice of a running extension the registry drives.
// *extension.Session satisfies it.
type Session interface {
	Send(cmd protocol.Command) error
	Responses() <-chan protocol.Response
	Done() <-chan struct{}
	Close()
}

// Registry owns a set of running extension sessions and merges their
// response streams. Safe for concurrent use; Events assumes a single
// logical consumer.
type Registry struct {
	logger    *zap.Logger
	sessions  map[string]Session
	events    chan Event
	closing   chan struct{}
	startOpts []extension.StartOption
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithStartOptions sets session options applied to every Register call.
func WithStartOptions(opts ...extension.StartOption) Option {
	return func(r *Registry) {
		r.startOpts = opts
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:   zap.NewNop(),
		sessions: make(map[string]Session),
		events:   make(chan Event, eventBuffer),
		closing:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register starts the extension and adds its session under the extension's
// id. Fails without starting anything when the id is already taken.
func (r *Registry) Register(ctx context.Context, ext *extension.Extension) error {
	r.mu.Lock()
	if _, exists := r.sessions[ext.ID]; exists {
		r.mu.Unlock()
		return errors.AlreadyExists(ext.ID)
	}
	r.mu.Unlock()

	session, err := ext.Start(ctx, r.startOpts...)
	if err != nil {
		return err
	}

	if err := r.RegisterSession(ext.ID, session); err != nil {
		session.Close()
		return err
	}
	return nil
}

// RegisterSession adopts an already-running session under the given id.
func (r *Registry) RegisterSession(id string, session Session) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.SendFailed(id)
	}
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return errors.AlreadyExists(id)
	}
	r.sessions[id] = session
	r.mu.Unlock()

	hostMetrics().Registered.Inc()
	r.logger.Info("extension registered", zap.String("extension", id))

	r.wg.Add(1)
	go r.forward(id, session)
	return nil
}

// forward pumps one session's responses into the merged stream. When the
// session loop exits the id is released.
func (r *Registry) forward(id string, session Session) {
	defer r.wg.Done()

	for resp := range session.Responses() {
		hostMetrics().Responses.WithLabelValues(id, string(resp.Type)).Inc()
		// Once shutdown begins the consumer may be gone; keep draining the
		// session so its loop can exit, but stop delivering.
		select {
		case r.events <- Event{Extension: id, Response: resp}:
		case <-r.closing:
		}
	}

	r.mu.Lock()
	if r.sessions[id] == session {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	hostMetrics().Registered.Dec()
	r.logger.Info("extension terminated", zap.String("extension", id))
}

// Send enqueues a command for the named extension.
func (r *Registry) Send(id string, cmd protocol.Command) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		hostMetrics().SendFailures.WithLabelValues(id).Inc()
		return errors.NotFound(id)
	}

	if err := session.Send(cmd); err != nil {
		hostMetrics().SendFailures.WithLabelValues(id).Inc()
		return err
	}

	hostMetrics().CommandsSent.WithLabelValues(id).Inc()
	return nil
}

// Events returns the merged response stream. It closes after Close once
// every forwarder has drained.
func (r *Registry) Events() <-chan Event {
	return r.events
}

// Unregister drops the named session from the registry and closes its
// command intake. The id frees up immediately; the session drains its queue
// in the background and its forwarder exits on its own.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return errors.NotFound(id)
	}

	session.Close()
	return nil
}

// List returns the registered ids, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every session, waits for the forwarders to exit, and closes
// the event stream. Delivery stops immediately: responses still in flight
// at shutdown are discarded, so Close never hangs on a departed consumer.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	sessions := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	close(r.closing)
	for _, s := range sessions {
		s.Close()
	}

	r.wg.Wait()
	close(r.events)
}
