package hostfunc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// HTTPRequestName is the import name guests call for HTTP egress.
const HTTPRequestName = "http_request"

// HTTPRequest is the wire form of a guest-initiated outbound HTTP request.
type HTTPRequest struct {
	// Headers contains request headers.
	Headers map[string]string `json:"headers,omitempty"`

	// Method is the HTTP method (GET, POST, ...). Defaults to GET.
	Method string `json:"method"`

	// URL is the target URL.
	URL string `json:"url"`

	// Body is the request body.
	Body []byte `json:"body,omitempty"`

	// TimeoutMs overrides the configured request timeout.
	TimeoutMs int `json:"timeout_ms,omitempty"`

	// FollowRedirects controls redirect handling. Default is true.
	FollowRedirects *bool `json:"follow_redirects,omitempty"`
}

// HTTPResponse is the wire form surfaced back to the guest.
type HTTPResponse struct {
	// Headers contains response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Error is set when the request failed before producing a response.
	Error *HTTPError `json:"error,omitempty"`

	// Body is the response body, possibly truncated.
	Body []byte `json:"body,omitempty"`

	// StatusCode is the HTTP status code.
	StatusCode int `json:"status_code"`

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64 `json:"latency_ms,omitempty"`

	// BodyTruncated reports that the body hit the configured size limit.
	BodyTruncated bool `json:"body_truncated,omitempty"`
}

// HTTPError describes a failed egress request.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// HTTPOption configures HTTP egress behavior.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client          *http.Client
	timeout         time.Duration
	maxBodySize     int64
	followRedirects bool
}

func defaultHTTPConfig() httpConfig {
	return httpConfig{
		timeout:         30 * time.Second,
		maxBodySize:     10 << 20,
		followRedirects: true,
	}
}

// WithHTTPTimeout sets the default request timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(c *httpConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPMaxBodySize caps the response body size in bytes.
func WithHTTPMaxBodySize(size int64) HTTPOption {
	return func(c *httpConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithHTTPClient substitutes the underlying client. Used by tests and by
// hosts that need a custom transport.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *httpConfig) {
		c.client = client
	}
}

// PerformHTTPRequest executes one guest-requested egress call over the
// host's own network stack. All failures are carried in the response; the
// returned value is always well-formed.
func PerformHTTPRequest(ctx context.Context, req HTTPRequest, opts ...HTTPOption) HTTPResponse {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if req.TimeoutMs > 0 {
		cfg.timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	if req.FollowRedirects != nil {
		cfg.followRedirects = *req.FollowRedirects
	}
	if req.URL == "" {
		return HTTPResponse{Error: &HTTPError{Code: "invalid_request", Message: "url is required"}}
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return HTTPResponse{Error: &HTTPError{Code: "invalid_request", Message: err.Error()}}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := cfg.client
	if client == nil {
		client = &http.Client{}
	}
	if !cfg.followRedirects {
		cloned := *client
		cloned.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		client = &cloned
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		code := "network"
		if errors.Is(err, context.DeadlineExceeded) {
			code = "timeout"
		}
		return HTTPResponse{
			Error:     &HTTPError{Code: code, Message: err.Error()},
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, cfg.maxBodySize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return HTTPResponse{
			StatusCode: resp.StatusCode,
			Error:      &HTTPError{Code: "body_read", Message: err.Error()},
			LatencyMs:  time.Since(start).Milliseconds(),
		}
	}

	truncated := false
	if int64(len(data)) > cfg.maxBodySize {
		data = data[:cfg.maxBodySize]
		truncated = true
	}

	return HTTPResponse{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		Body:          data,
		BodyTruncated: truncated,
		LatencyMs:     time.Since(start).Milliseconds(),
	}
}
