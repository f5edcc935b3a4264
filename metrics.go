package goSession

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/gateway"
)

// MetricID identifies one in-process counter or histogram.
type MetricID uint16

const (
	// MetricSessionCheckAuthenticated counts mount-time checks that found a user.
	MetricSessionCheckAuthenticated MetricID = iota
	// MetricSessionCheckUnauthenticated counts mount-time checks that found no user or failed.
	MetricSessionCheckUnauthenticated
	MetricLoginStarted
	MetricLoginFailure
	MetricLogoutSuccess
	MetricLogoutFailure
	MetricRefreshSuccess
	// MetricRefreshEmpty counts refreshes answered without a user payload.
	MetricRefreshEmpty
	MetricRefreshFailure
	// MetricCredentialRevoked counts 401 responses that cleared the credential.
	MetricCredentialRevoked
	// MetricStaleResultDropped counts results discarded because a newer one was committed.
	MetricStaleResultDropped
	// MetricClosedResultDropped counts results discarded because the store was closed.
	MetricClosedResultDropped
	MetricGatewayRequest
	MetricGatewayError
	// MetricGatewayLatency is the only histogram.
	MetricGatewayLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a lock-free set of counters. A nil or disabled *Metrics ignores writes.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only MetricGatewayLatency has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricGatewayLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricGatewayLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricGatewayLatency].buckets[i])
		}
		s.Histograms[MetricGatewayLatency] = buckets
	}

	return s
}

// bucket upper bounds: 5ms 10ms 25ms 50ms 100ms 250ms 500ms +Inf
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}

type requestStartKey struct{}

// metricsInterceptor counts gateway calls and records their latency.
func metricsInterceptor(m *Metrics) gateway.Interceptor {
	return gateway.InterceptorFuncs{
		Before: func(req *http.Request) *http.Request {
			if !m.Enabled() {
				return req
			}
			return req.WithContext(context.WithValue(req.Context(), requestStartKey{}, time.Now()))
		},
		After: func(req *http.Request, resp *http.Response, err error) {
			if !m.Enabled() {
				return
			}
			m.Inc(MetricGatewayRequest)
			if err != nil || (resp != nil && resp.StatusCode >= http.StatusBadRequest) {
				m.Inc(MetricGatewayError)
			}
			if start, ok := req.Context().Value(requestStartKey{}).(time.Time); ok {
				m.Observe(MetricGatewayLatency, time.Since(start))
			}
		},
	}
}

// MetricsSnapshot returns the store's counters; exporters poll it.
func (s *Store) MetricsSnapshot() MetricsSnapshot {
	return s.metrics.Snapshot()
}
