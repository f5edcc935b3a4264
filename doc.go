// Package goSession provides the client-side half of an OAuth-backed session: it checks,
// refreshes and tears down a session against a backend, and keeps the bearer credential
// on outbound calls in sync with what the backend says.
//
// A [Store] is built once through [Builder.Build], mounted at application start with
// [Store.Mount], and torn down with [Store.Close]. Store methods are safe to call from
// multiple goroutines; results that arrive after Close are discarded.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Store], [Builder], [Config], [Session] and
// the consumer hook ([WithStore], [Use], [MustUse]). Call orchestration lives in
// internal/flows and async audit delivery in internal/audit. The credential slot, the HTTP
// gateway and the navigator are sub-packages so applications can use them on their own.
//
// # What this package must NOT do
//
//   - Render views or decide what a protected page looks like.
//   - Abort in-flight network calls on Close (late results are dropped instead).
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
