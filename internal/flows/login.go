package flows

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrLoginURLMissing is returned when the backend answers without a usable URL.
	ErrLoginURLMissing = errors.New("login url missing from response")
	// ErrLoginCallerMissing is returned when the flow has no gateway to call.
	ErrLoginCallerMissing = errors.New("login caller missing")
)

// LoginDeps captures login initiation dependencies.
type LoginDeps struct {
	Caller       Caller
	PathTemplate string
}

// LoginResult carries the provider authorization URL to navigate to.
type LoginResult struct {
	URL string
	Err error
}

type loginResponse struct {
	URL string `json:"url"`
}

// LoginPath expands the "{provider}" placeholder of template.
func LoginPath(template, provider string) string {
	return strings.ReplaceAll(template, "{provider}", url.PathEscape(provider))
}

// RunLogin asks the backend for the provider authorization URL. It does not navigate.
func RunLogin(ctx context.Context, provider string, deps LoginDeps) LoginResult {
	if deps.Caller == nil {
		return LoginResult{Err: ErrLoginCallerMissing}
	}

	var resp loginResponse
	ok, err := deps.Caller.Get(ctx, LoginPath(deps.PathTemplate, provider), &resp)
	if err != nil {
		return LoginResult{Err: err}
	}
	target := strings.TrimSpace(resp.URL)
	if !ok || target == "" {
		return LoginResult{Err: ErrLoginURLMissing}
	}
	if _, err := url.Parse(target); err != nil {
		return LoginResult{Err: ErrLoginURLMissing}
	}
	return LoginResult{URL: target}
}
