// Package gateway is the shared HTTP client every outbound session call goes through.
//
// # Interceptors
//
// A [Gateway] runs an ordered chain of [Interceptor] values around its transport:
// BeforeSend hooks run in order before the request leaves, AfterReceive hooks run in
// reverse order once the response (or transport error) is back.
//
//   - [Bearer]: attaches the stored credential as "Authorization: Bearer".
//   - [Unauthorized]: on 401, clears the credential and hard-navigates to the login page.
//   - [CaptureCredential]: stores a credential the backend returns in a response header.
//   - [DropExpired]: discards a JWT credential whose exp already passed.
//   - [RequestID], [Tracing]: request correlation and OpenTelemetry client spans.
//
// # Architecture boundaries
//
// Interceptors add side effects; they never swallow failures. A 401 still reaches the
// caller as a [*StatusError] after the Unauthorized interceptor has run, so call sites
// handle the rejection and the redirect happens exactly once per failing call.
//
// The chain also runs on every redirect hop. Stages that read or write the credential
// check [OnOrigin] and leave hops to other hosts alone.
//
// # What this package must NOT do
//
//   - Import goSession or middleware (no upward imports).
//   - Hold session state; the gateway only reads and writes the credential slot.
//   - Retry requests (a retried 401 would redirect twice).
package gateway
