// Package credential provides the durable slot that holds the bearer credential of the
// current session.
//
// # Slots
//
//   - [Memory]: process memory; the default when nothing durable is configured.
//   - [File]: a single 0600 file, replaced atomically on every write.
//   - [Redis]: a single Redis key with an optional TTL.
//
// # Architecture boundaries
//
// A [Carrier] is pure storage: get, set, clear. It does NOT validate, parse, or refresh the
// credential. Inspection lives in package jwt and the 401 policy lives in package gateway.
//
// # What this package must NOT do
//
//   - Import goSession, gateway, or middleware (no upward imports).
//   - Log or emit credential values.
//   - Require a session to exist before Get is called.
package credential
