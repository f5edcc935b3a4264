package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

var (
	// ErrInvalidBaseURL is returned by New when the base URL cannot be used.
	ErrInvalidBaseURL = errors.New("invalid gateway base URL")
	// ErrBodyTooLarge is returned when a response exceeds the read limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// IsUnauthorized reports whether err is a 401 StatusError.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// Options configures a Gateway.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Headers are added to every request unless the call sets them itself.
	Headers http.Header
	// Transport is the underlying RoundTripper; nil uses http.DefaultTransport.
	Transport    http.RoundTripper
	Interceptors []Interceptor
	Logger       *slog.Logger
}

// Gateway is the shared HTTP client for backend calls.
type Gateway struct {
	client  *http.Client
	baseURL *url.URL
	headers http.Header
	logger  *slog.Logger
}

// New builds a Gateway. The interceptor order in opts is the BeforeSend order.
func New(opts Options) (*Gateway, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	headers := opts.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", "application/json")
	}

	return &Gateway{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newChainTransport(opts.Transport, base.Host, opts.Interceptors),
		},
		baseURL: base,
		headers: headers,
		logger:  orDiscard(opts.Logger),
	}, nil
}

// Client exposes the underlying client so other callers share the interceptor chain.
func (g *Gateway) Client() *http.Client {
	return g.client
}

// Response is a fully read backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Empty reports whether the response carries no payload. JSON null and "" count as empty.
func (r *Response) Empty() bool {
	if r == nil {
		return true
	}
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

// DecodeJSON decodes the payload into out. It returns false without error when the
// response is empty.
func (r *Response) DecodeJSON(out any) (bool, error) {
	if r.Empty() {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// Do sends one request. A non-nil in is encoded as JSON. Non-2xx responses come back as a
// *StatusError together with the read Response.
func (g *Gateway) Do(ctx context.Context, method, path string, in any) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range g.headers {
		if req.Header.Get(k) == "" {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.DebugContext(ctx, "gateway call failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
	g.logger.DebugContext(ctx, "gateway call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: data}
	}
	return out, nil
}

// Get issues a GET and decodes the payload into out.
func (g *Gateway) Get(ctx context.Context, path string, out any) (bool, error) {
	resp, err := g.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	return resp.DecodeJSON(out)
}

// Post issues a POST with an optional JSON body and decodes the payload into out.
func (g *Gateway) Post(ctx context.Context, path string, in, out any) (bool, error) {
	resp, err := g.Do(ctx, http.MethodPost, path, in)
	if err != nil {
		return false, err
	}
	return resp.DecodeJSON(out)
}

func (g *Gateway) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	u := *g.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawQuery = ref.RawQuery
	return u.String()
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
