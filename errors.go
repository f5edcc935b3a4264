package goSession

import "errors"

var (
	// ErrNoSessionScope is returned by Use when no Store was injected into the context.
	ErrNoSessionScope = errors.New("no session store in scope")
	// ErrUnknownProvider is returned for provider names outside google, microsoft and discord.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrStoreClosed is returned by RefreshToken after Close.
	ErrStoreClosed = errors.New("session store closed")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrRedisRequired is returned when the redis credential backend has no client or address.
	ErrRedisRequired = errors.New("redis credential backend requires a client or address")
)

// User-facing messages committed to Session.Error.
const (
	MessageLoginFailed  = "Failed to initiate login"
	MessageLogoutFailed = "Failed to logout"
)
