package flows

import (
	"context"
	"errors"
	"strings"
)

// ErrRefreshCallerMissing is returned when the flow has no gateway to call.
var ErrRefreshCallerMissing = errors.New("refresh caller missing")

// RefreshDeps captures session check / refresh dependencies.
type RefreshDeps struct {
	Caller Caller
	Path   string
}

// RefreshResult carries the user payload, if any, or the call failure.
//
// User == nil with Err == nil is the "no session" outcome: the backend answered but
// returned no identity.
type RefreshResult struct {
	User *UserPayload
	Err  error
}

// RunRefresh performs POST <refresh path> and decodes the user payload.
// A payload without an id counts as no payload.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	if deps.Caller == nil {
		return RefreshResult{Err: ErrRefreshCallerMissing}
	}

	var payload UserPayload
	ok, err := deps.Caller.Post(ctx, deps.Path, nil, &payload)
	if err != nil {
		return RefreshResult{Err: err}
	}
	if !ok || strings.TrimSpace(payload.ID) == "" {
		return RefreshResult{}
	}
	return RefreshResult{User: &payload}
}

// RunCheck is the mount-time session check. It calls the same endpoint as RunRefresh; the
// difference between the two lies entirely in how the Store commits a failure.
func RunCheck(ctx context.Context, deps RefreshDeps) RefreshResult {
	return RunRefresh(ctx, deps)
}
