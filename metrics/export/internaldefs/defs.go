package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef binds a counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCheckAuthenticated, Name: "gosession_check_authenticated_total", Help: "Session checks that found a signed-in user."},
	{ID: goSession.MetricSessionCheckUnauthenticated, Name: "gosession_check_unauthenticated_total", Help: "Session checks that found no user or failed."},
	{ID: goSession.MetricLoginStarted, Name: "gosession_login_started_total", Help: "Logins handed off to an identity provider."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Logins that could not be initiated."},
	{ID: goSession.MetricLogoutSuccess, Name: "gosession_logout_success_total", Help: "Logouts confirmed by the backend."},
	{ID: goSession.MetricLogoutFailure, Name: "gosession_logout_failure_total", Help: "Logouts rejected by the backend."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Refreshes that returned a user."},
	{ID: goSession.MetricRefreshEmpty, Name: "gosession_refresh_empty_total", Help: "Refreshes that returned no user."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Refreshes rejected by the backend."},
	{ID: goSession.MetricCredentialRevoked, Name: "gosession_credential_revoked_total", Help: "Credentials cleared after a 401 response."},
	{ID: goSession.MetricStaleResultDropped, Name: "gosession_stale_result_dropped_total", Help: "Results discarded because a newer one was already committed."},
	{ID: goSession.MetricClosedResultDropped, Name: "gosession_closed_result_dropped_total", Help: "Results discarded because the store was closed."},
	{ID: goSession.MetricGatewayRequest, Name: "gosession_gateway_requests_total", Help: "Backend calls made through the gateway."},
	{ID: goSession.MetricGatewayError, Name: "gosession_gateway_errors_total", Help: "Backend calls that failed or returned status >= 400."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricGatewayLatency, Name: "gosession_gateway_latency_seconds", Help: "Backend call latency."},
}

// HistogramBounds are the upper bounds in seconds, +Inf last.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters without native histograms.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
