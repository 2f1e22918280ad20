package extension

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/extension-host/engine"
	"github.com/wippyai/extension-host/errors"
	"github.com/wippyai/extension-host/hostfunc"
	"github.com/wippyai/extension-host/protocol"
)

// responseBuffer is the capacity of the session response channel. Once it
// fills, the loop blocks until the consumer catches up.
const responseBuffer = 16

// StartOption configures a session at start time.
type StartOption func(*startConfig)

type startConfig struct {
	logger           *zap.Logger
	hostFuncs        *hostfunc.Registry
	guest            Guest
	memoryLimitPages uint32
}

// WithLogger sets the session logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) StartOption {
	return func(c *startConfig) {
		c.logger = l
	}
}

// WithHostFuncs sets the host capabilities exposed to the guest.
func WithHostFuncs(r *hostfunc.Registry) StartOption {
	return func(c *startConfig) {
		c.hostFuncs = r
	}
}

// WithMemoryLimitPages caps guest memory in 64KB pages.
func WithMemoryLimitPages(pages uint32) StartOption {
	return func(c *startConfig) {
		c.memoryLimitPages = pages
	}
}

// withGuest substitutes an in-process guest, bypassing the wasm engine.
func withGuest(g Guest) StartOption {
	return func(c *startConfig) {
		c.guest = g
	}
}

// Session is a running extension instance. One goroutine feeds queued
// commands to the guest in arrival order and publishes each response on
// Responses.
type Session struct {
	guest     Guest
	engine    *engine.Engine
	logger    *zap.Logger
	queue     *commandQueue
	responses chan protocol.Response
	done      chan struct{}
	metadata  protocol.Metadata
	id        string
	closeOnce sync.Once

	// guestMu serializes all guest calls: the loop's Update, caller-side
	// View, and the final release. The underlying instance is not
	// thread-safe.
	guestMu sync.Mutex
}

// Start instantiates the extension and begins its command loop. Compilation,
// metadata retrieval, and the guest constructor run synchronously: if any of
// them fail there is no session. A non-nil return means the extension is
// running and ready for Send.
func (x *Extension) Start(ctx context.Context, opts ...StartOption) (*Session, error) {
	cfg := &startConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	guest := cfg.guest
	var eng *engine.Engine
	if guest == nil {
		engOpts := []engine.Option{engine.WithLogger(cfg.logger)}
		if cfg.hostFuncs != nil {
			engOpts = append(engOpts, engine.WithHostFuncs(cfg.hostFuncs))
		}
		if cfg.memoryLimitPages > 0 {
			engOpts = append(engOpts, engine.WithMemoryLimitPages(cfg.memoryLimitPages))
		}

		var err error
		eng, err = engine.New(ctx, engOpts...)
		if err != nil {
			return nil, err
		}

		inst, err := eng.Instantiate(ctx, x.Bytes)
		if err != nil {
			_ = eng.Close(ctx)
			return nil, err
		}
		guest = inst
	}

	md, err := guest.Metadata(ctx)
	if err != nil {
		releaseGuest(ctx, guest, eng)
		return nil, err
	}

	if err := guest.NewInstance(ctx, x.Config); err != nil {
		releaseGuest(ctx, guest, eng)
		return nil, err
	}

	s := &Session{
		guest:     guest,
		engine:    eng,
		logger:    cfg.logger.With(zap.String("extension", x.ID)),
		queue:     newCommandQueue(),
		responses: make(chan protocol.Response, responseBuffer),
		done:      make(chan struct{}),
		metadata:  md,
		id:        x.ID,
	}

	go s.loop()
	return s, nil
}

// Metadata returns the identity the guest reported at start.
func (s *Session) Metadata() protocol.Metadata {
	return s.metadata
}

// Responses returns the session's response stream. The first response is
// always the Metadata variant. The channel closes when the loop exits.
func (s *Session) Responses() <-chan protocol.Response {
	return s.responses
}

// Done is closed after the loop has exited and guest resources are released.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send enqueues a command for the guest. It never blocks. After Close the
// session stops accepting commands and Send fails.
func (s *Session) Send(cmd protocol.Command) error {
	if !s.queue.push(cmd) {
		return errors.SendFailed(s.id)
	}
	return nil
}

// View returns a diagnostic snapshot of guest state. The call waits for any
// in-flight command to finish, so a slow command delays the snapshot.
func (s *Session) View(ctx context.Context) (string, error) {
	s.guestMu.Lock()
	defer s.guestMu.Unlock()
	return s.guest.View(ctx)
}

// Close stops command intake. Commands already queued are still processed;
// wait on Done for full teardown.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.queue.close()
	})
}

func (s *Session) loop() {
	ctx := context.Background()

	defer close(s.done)

	s.responses <- protocol.MetadataResponse(s.metadata)

	for {
		cmd, ok := s.queue.pop()
		if !ok {
			break
		}
		s.responses <- s.process(ctx, cmd)
	}

	s.guestMu.Lock()
	releaseGuest(ctx, s.guest, s.engine)
	s.guestMu.Unlock()
	close(s.responses)
}

// process runs one command through the guest. Every failure mode maps to an
// Error response carrying the command's correlation id; the loop itself
// never dies from a bad command.
func (s *Session) process(ctx context.Context, cmd protocol.Command) protocol.Response {
	payload, err := json.Marshal(cmd)
	if err != nil {
		s.logger.Error("encode command", zap.Error(err))
		return protocol.ErrorResponse("failed to encode command: "+err.Error(), cmd.CorrelationID)
	}

	s.guestMu.Lock()
	out, err := s.guest.Update(ctx, string(payload))
	s.guestMu.Unlock()
	if err != nil {
		if msg, ok := errors.GuestMessage(err); ok {
			return protocol.ErrorResponse(msg, cmd.CorrelationID)
		}
		s.logger.Error("guest update fault", zap.Error(err))
		return protocol.ErrorResponse("runtime error: "+err.Error(), cmd.CorrelationID)
	}

	var resp protocol.Response
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		s.logger.Error("decode response", zap.Error(err))
		return protocol.ErrorResponse("failed to decode response: "+err.Error(), cmd.CorrelationID)
	}
	return resp
}

func releaseGuest(ctx context.Context, guest Guest, eng *engine.Engine) {
	_ = guest.Close(ctx)
	if eng != nil {
		_ = eng.Close(ctx)
	}
}
