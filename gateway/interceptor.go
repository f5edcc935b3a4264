package gateway

import (
	"context"
	"net/http"
	"strings"
)

// Interceptor observes and decorates every request that passes through a Gateway.
//
// BeforeSend receives a private clone of the outgoing request and returns the request to
// send, which may be a derived copy (for example one carrying a span context). It cannot
// fail: an interceptor that has nothing to add returns req unchanged.
//
// AfterReceive sees the final request together with the response or transport error. It
// must not consume or close resp.Body.
type Interceptor interface {
	BeforeSend(req *http.Request) *http.Request
	AfterReceive(req *http.Request, resp *http.Response, err error)
}

// InterceptorFuncs adapts plain functions to Interceptor. Nil fields are skipped.
type InterceptorFuncs struct {
	Before func(req *http.Request) *http.Request
	After  func(req *http.Request, resp *http.Response, err error)
}

func (f InterceptorFuncs) BeforeSend(req *http.Request) *http.Request {
	if f.Before == nil {
		return req
	}
	if next := f.Before(req); next != nil {
		return next
	}
	return req
}

func (f InterceptorFuncs) AfterReceive(req *http.Request, resp *http.Response, err error) {
	if f.After != nil {
		f.After(req, resp, err)
	}
}

type originKey struct{}

// OnOrigin reports whether req targets the gateway's base host. Redirect hops to other
// hosts do not. Requests that never passed through a Gateway count as on-origin.
// Stages that touch the credential must skip off-origin requests.
func OnOrigin(req *http.Request) bool {
	on, ok := req.Context().Value(originKey{}).(bool)
	return !ok || on
}

// chainTransport is the RoundTripper that drives the interceptor chain.
type chainTransport struct {
	base  http.RoundTripper
	host  string
	chain []Interceptor
}

func newChainTransport(base http.RoundTripper, host string, chain []Interceptor) *chainTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	out := make([]Interceptor, 0, len(chain))
	for _, ic := range chain {
		if ic != nil {
			out = append(out, ic)
		}
	}
	return &chainTransport{base: base, host: host, chain: out}
}

func (t *chainTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	on := t.host == "" || strings.EqualFold(req.URL.Host, t.host)
	out := req.Clone(context.WithValue(req.Context(), originKey{}, on))
	for _, ic := range t.chain {
		if next := ic.BeforeSend(out); next != nil {
			out = next
		}
	}

	resp, err := t.base.RoundTrip(out)

	for i := len(t.chain) - 1; i >= 0; i-- {
		t.chain[i].AfterReceive(out, resp, err)
	}
	return resp, err
}
