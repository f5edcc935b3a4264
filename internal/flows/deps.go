package flows

import (
	"context"
)

// Caller is the slice of the gateway the flows need.
type Caller interface {
	Get(ctx context.Context, path string, out any) (bool, error)
	Post(ctx context.Context, path string, in, out any) (bool, error)
}

// Paths is the backend wire contract.
type Paths struct {
	Refresh string
	Logout  string
	// LoginTemplate contains "{provider}", e.g. "/auth/{provider}/login".
	LoginTemplate string
}

// DefaultPaths returns the standard endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Refresh:       "/auth/refresh",
		Logout:        "/auth/logout",
		LoginTemplate: "/auth/{provider}/login",
	}
}

// Deps groups flow dependency sets. The Store builds this once and delegates each
// operation to the matching flow.
type Deps struct {
	Refresh RefreshDeps
	Login   LoginDeps
	Logout  LogoutDeps
}

// UserPayload mirrors the user JSON returned by the refresh endpoint.
type UserPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture,omitempty"`
	Provider string `json:"provider"`
}
