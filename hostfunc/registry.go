package hostfunc

import (
	"context"
	"fmt"
	"sort"
)

// Registry is an immutable collection of named host capabilities. Once built
// it cannot change, so Invoke needs no locking.
type Registry struct {
	handlers map[string]ByteHandler
	names    []string
}

type builder struct {
	handlers   map[string]ByteHandler
	middleware []Middleware
	errs       []error
}

// Option configures a Registry under construction.
type Option func(*builder)

// WithHandler registers a raw ByteHandler under a name.
func WithHandler(name string, handler ByteHandler) Option {
	return func(b *builder) {
		if name == "" {
			b.errs = append(b.errs, fmt.Errorf("handler name cannot be empty"))
			return
		}
		if _, exists := b.handlers[name]; exists {
			b.errs = append(b.errs, fmt.Errorf("duplicate handler name %q", name))
			return
		}
		b.handlers[name] = handler
	}
}

// WithMiddleware appends middleware applied to every handler, FIFO.
func WithMiddleware(mw ...Middleware) Option {
	return func(b *builder) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithHTTP registers the http_request egress capability.
func WithHTTP(opts ...HTTPOption) Option {
	return WithHandler(HTTPRequestName, NewJSONHandler(func(ctx context.Context, req HTTPRequest) HTTPResponse {
		return PerformHTTPRequest(ctx, req, opts...)
	}))
}

// NewRegistry builds an immutable registry. Registration errors (duplicate or
// empty names) fail construction.
func NewRegistry(opts ...Option) (*Registry, error) {
	b := &builder{handlers: make(map[string]ByteHandler)}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	wrapped := make(map[string]ByteHandler, len(b.handlers))
	for name, handler := range b.handlers {
		h := handler
		// Reverse application keeps the first middleware outermost.
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		wrapped[name] = h
	}

	return &Registry{handlers: wrapped, names: names}, nil
}

// Default builds the standard capability set guests get unless the caller
// overrides it: panic recovery plus HTTP egress.
func Default() (*Registry, error) {
	return NewRegistry(
		WithMiddleware(Recovery()),
		WithHTTP(),
	)
}

// Invoke dispatches a capability call by name. An unknown name yields an
// in-band error response, not a Go error; only the handler itself can fail.
func (r *Registry) Invoke(ctx context.Context, name string, payload []byte) ([]byte, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return errorResponse("not_found", fmt.Sprintf("host function %q not registered", name)), nil
	}
	return handler(ctx, payload)
}

// Has reports whether a capability is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the sorted capability names.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
