package hostfunc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Func is the typed signature of a host capability: a context and a request
// in, a response out. Failures are reported inside the response value.
type Func[Req any, Resp any] func(context.Context, Req) Resp

// ByteHandler is the raw form the engine dispatches: JSON request bytes in,
// JSON response bytes out.
type ByteHandler func(context.Context, []byte) ([]byte, error)

// NewJSONHandler adapts a typed Func into a ByteHandler, handling the JSON
// decode of the request and encode of the response.
func NewJSONHandler[Req any, Resp any](fn Func[Req, Resp]) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		var req Req
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("unmarshal request: %w", err)
		}

		resp := fn(ctx, req)

		out, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return out, nil
	}
}

// Middleware wraps a ByteHandler with cross-cutting behavior. Middleware
// executes in FIFO order: the first registered wraps outermost.
type Middleware func(next ByteHandler) ByteHandler

// Recovery returns a middleware that converts handler panics into an error
// response instead of crashing the host. Guest calls must never take the
// host process down.
func Recovery() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = errorResponse("panic", fmt.Sprintf("host function panic: %v", r))
					err = nil
				}
			}()
			return next(ctx, payload)
		}
	}
}

// errorResponse renders a failure the guest can decode uniformly, whatever
// the capability's own response shape is.
func errorResponse(code, message string) []byte {
	out, _ := json.Marshal(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
	return out
}
