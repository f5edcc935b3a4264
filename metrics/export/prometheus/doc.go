// Package prometheus exposes goSession counters as a prometheus.Collector.
//
// [NewCollector] reads [goSession.Store.MetricsSnapshot] on every scrape and emits const
// metrics, so nothing is double counted and no global registry is touched. [Handler]
// wraps a private registry with promhttp for mounting at /metrics.
//
// # What this package must NOT do
//
//   - Register into prometheus.DefaultRegisterer.
//   - Mutate store state.
package prometheus
