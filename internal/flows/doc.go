// Package flows contains pure-function orchestrators for every Store operation.
//
// Each flow function (RunCheck, RunRefresh, RunLogin, RunLogout) accepts a typed
// dependency struct, performs the backend calls for one operation, and returns a result
// value. Flows never touch session state: deciding whether and how a result is committed
// (liveness, staleness, error messages) stays with the Store.
//
// # Architecture boundaries
//
// Flow functions coordinate the gateway call and the credential side effects of logout.
// They do NOT own the gateway, the credential slot, or the navigator; ownership stays
// with the Store.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Decide user-facing error messages.
package flows
