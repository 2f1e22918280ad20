package engine

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/extension-host/errors"
	"github.com/wippyai/extension-host/hostfunc"
)

// hostModuleName is the import namespace guests use to reach the host.
const hostModuleName = "extension_host"

// Engine owns a wazero runtime configured for a single extension session.
type Engine struct {
	runtime   wazero.Runtime
	logger    *zap.Logger
	hostFuncs *hostfunc.Registry
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	logger           *zap.Logger
	hostFuncs        *hostfunc.Registry
	memoryLimitPages uint32
}

// WithLogger sets the logger used for engine diagnostics and guest log lines.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHostFuncs sets the host function registry exposed to the guest.
// Each registered name becomes an export on the host module.
func WithHostFuncs(r *hostfunc.Registry) Option {
	return func(c *config) {
		c.hostFuncs = r
	}
}

// WithMemoryLimitPages caps guest memory in 64KB pages.
// 0 means the wazero default (65536 pages = 4GB).
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = pages
	}
}

// New creates an engine with WASI preview1 and the host module instantiated.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.hostFuncs == nil {
		empty, err := hostfunc.NewRegistry()
		if err != nil {
			return nil, err
		}
		cfg.hostFuncs = empty
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.memoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	e := &Engine{
		runtime:   runtime,
		logger:    cfg.logger,
		hostFuncs: cfg.hostFuncs,
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidBinary, err, "instantiate WASI")
	}

	if err := e.instantiateHostModule(ctx); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	return e, nil
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger {
	return e.logger
}

// Close releases the runtime and every instance created from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

func (e *Engine) instantiateHostModule(ctx context.Context) error {
	builder := e.runtime.NewHostModuleBuilder(hostModuleName)

	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, packed uint64) {
			e.logFromGuest(m, packed)
		}).
		Export("log_message")

	for _, name := range e.hostFuncs.Names() {
		localName := name
		builder.NewFunctionBuilder().
			WithFunc(func(ctx context.Context, m api.Module, packed uint64) uint64 {
				return e.dispatchHostFunc(ctx, m, localName, packed)
			}).
			Export(name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindBuildFailed, err, "instantiate host module")
	}
	return nil
}

// dispatchHostFunc reads the packed request from guest memory, invokes the
// named handler, and writes the response back. Memory faults return 0, which
// the guest side treats as a null response.
func (e *Engine) dispatchHostFunc(ctx context.Context, m api.Module, name string, packed uint64) uint64 {
	payload, ok := readPacked(m, packed)
	if !ok {
		e.logger.Warn("host call with unreadable payload", zap.String("func", name))
		return 0
	}

	resp, err := e.hostFuncs.Invoke(ctx, name, payload)
	if err != nil {
		e.logger.Error("host function failed", zap.String("func", name), zap.Error(err))
		return 0
	}

	out, err := writeToGuest(ctx, m, resp)
	if err != nil {
		e.logger.Error("write host response", zap.String("func", name), zap.Error(err))
		return 0
	}
	return out
}

func (e *Engine) logFromGuest(m api.Module, packed uint64) {
	payload, ok := readPacked(m, packed)
	if !ok {
		return
	}

	var msg struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		e.logger.Info("guest log", zap.ByteString("raw", payload))
		return
	}

	log := e.logger.With(zap.String("source", "guest"))
	switch msg.Level {
	case "debug", "trace":
		log.Debug(msg.Message)
	case "warn", "warning":
		log.Warn(msg.Message)
	case "error":
		log.Error(msg.Message)
	default:
		log.Info(msg.Message)
	}
}
