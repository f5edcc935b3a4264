package flows

import (
	"context"
	"errors"
)

// ErrLogoutCallerMissing is returned when the flow has no gateway to call.
var ErrLogoutCallerMissing = errors.New("logout caller missing")

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Caller Caller
	Path   string
	// ClearCredential runs only after the backend confirmed the logout.
	ClearCredential func(ctx context.Context) error
}

// LogoutResult reports the backend outcome and any local cleanup failure separately:
// a cleanup failure does not turn a confirmed logout into a failed one.
type LogoutResult struct {
	Err      error
	ClearErr error
}

// RunLogout performs POST <logout path> and, on success, clears the stored credential.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	if deps.Caller == nil {
		return LogoutResult{Err: ErrLogoutCallerMissing}
	}
	if _, err := deps.Caller.Post(ctx, deps.Path, nil, nil); err != nil {
		return LogoutResult{Err: err}
	}

	var clearErr error
	if deps.ClearCredential != nil {
		clearErr = deps.ClearCredential(ctx)
	}
	return LogoutResult{ClearErr: clearErr}
}
