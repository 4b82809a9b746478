package sessionauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

const (
	// MetricRegisterSuccess counts accounts created by RegisterUser.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts registrations rejected for a taken email.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts ValidLogin calls that returned true.
	MetricLoginSuccess
	// MetricLoginFailure counts ValidLogin calls that returned false.
	MetricLoginFailure
	// MetricLoginThrottled counts logins refused by the attempt limiter.
	MetricLoginThrottled
	// MetricSessionCreated counts issued sessions.
	MetricSessionCreated
	// MetricSessionDestroyed counts sessions removed by DestroySession.
	MetricSessionDestroyed
	// MetricSessionDestroyFailed counts teardowns that were logged and swallowed.
	MetricSessionDestroyFailed
	// MetricSessionLookupExpired counts lookups that found an expired session.
	MetricSessionLookupExpired
	// MetricResetTokenIssued counts reset tokens handed out.
	MetricResetTokenIssued
	// MetricResetTokenUnregistered counts reset requests for unknown emails.
	MetricResetTokenUnregistered
	// MetricPasswordResetSuccess counts redeemed reset tokens.
	MetricPasswordResetSuccess
	// MetricPasswordResetInvalidToken counts redemptions with an unknown token.
	MetricPasswordResetInvalidToken
	// MetricSessionLookupLatency is the GetUserFromSessionID latency histogram.
	MetricSessionLookupLatency
	metricIDCount
)

// LatencyBuckets are the upper bounds of the latency histogram. Observations
// above the last bound land in the overflow bucket.
var LatencyBuckets = [histBucketCount - 1]time.Duration{
	500 * time.Microsecond,
	time.Millisecond,
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
	sumNs   uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's in-process counters. The zero value and a nil
// pointer are both usable and record nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of the counters. Histogram slices
// hold non-cumulative bucket counts in [LatencyBuckets] order followed by the
// overflow bucket.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	// HistogramSums holds the total observed duration per histogram.
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only histogram IDs are accepted.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricSessionLookupLatency {
		return
	}
	if d < 0 {
		d = 0
	}

	h := &m.histograms[id]
	atomic.AddUint64(&h.buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&h.sumNs, uint64(d))
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter. A disabled Metrics returns empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:      map[MetricID]uint64{},
		Histograms:    map[MetricID][]uint64{},
		HistogramSums: map[MetricID]time.Duration{},
	}
	if m == nil || !m.enabled {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricSessionLookupLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		h := &m.histograms[MetricSessionLookupLatency]
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&h.buckets[i])
		}
		s.Histograms[MetricSessionLookupLatency] = buckets
		s.HistogramSums[MetricSessionLookupLatency] = time.Duration(atomic.LoadUint64(&h.sumNs))
	}

	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range LatencyBuckets {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
