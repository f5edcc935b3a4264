// Package middleware adapts a goSession.Store to net/http.
//
// # Components
//
//   - [Decide]: pure route-guard decision over a session snapshot.
//   - [Guard]: middleware that shows a loading placeholder, admits, or redirects to login.
//   - [Provide]: injects the Store into every request context for goSession.Use.
//   - [CallbackHandler] and [LogoutHandler]: the OAuth return view and the logout view.
//
// # Architecture boundaries
//
// This package translates Store state into HTTP responses. It does NOT talk to the backend
// itself; every state change goes through Store operations.
//
// # What this package must NOT do
//
//   - Redirect while the session is still loading.
//   - Read or write the credential slot.
//   - Trust a return-to hint that points off-site.
package middleware
