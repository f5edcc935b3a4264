package goSession

import (
	"fmt"
	"strings"
)

// Provider names an OAuth identity provider the backend can start a login for.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
	ProviderDiscord   Provider = "discord"
)

// Providers lists every supported provider in display order.
func Providers() []Provider {
	return []Provider{ProviderGoogle, ProviderMicrosoft, ProviderDiscord}
}

// ParseProvider accepts a provider name case-insensitively.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Valid reports whether p is one of the supported providers.
func (p Provider) Valid() bool {
	switch p {
	case ProviderGoogle, ProviderMicrosoft, ProviderDiscord:
		return true
	}
	return false
}

func (p Provider) String() string { return string(p) }

// User is the identity returned by the refresh endpoint.
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Picture  string   `json:"picture,omitempty"`
	Provider Provider `json:"provider"`
}

// Status is the coarse state of a [Session].
type Status uint8

const (
	StatusInitializing Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Session is an immutable snapshot of the store state.
//
// IsAuthenticated == (User != nil) whenever IsLoading is false. Error is empty when no
// user-facing error is set.
type Session struct {
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsLoading       bool   `json:"isLoading"`
	Error           string `json:"error,omitempty"`
}

// Status derives the state machine position of s.
func (s Session) Status() Status {
	switch {
	case s.IsLoading:
		return StatusInitializing
	case s.IsAuthenticated:
		return StatusAuthenticated
	default:
		return StatusUnauthenticated
	}
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
