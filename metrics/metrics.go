// Package metrics holds the Prometheus collectors for vendor calls, catalog
// loads and match queries. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pmsfinder"

// Cache results recorded by ObserveCache.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
	CacheSkip = "skip"
)

type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	UpstreamCache    *prometheus.CounterVec
	CatalogLoads     *prometheus.CounterVec
	Matches          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Vendor API requests by outcome.",
		}, []string{"vendor", "method", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Vendor API request latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"vendor"}),
		UpstreamCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "cache_total",
			Help:      "Vendor cache lookups: hit, miss, or skip when a response failed the shape check.",
		}, []string{"vendor", "result"}),
		CatalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "loads_total",
			Help:      "Local partition loads by result.",
		}, []string{"partition", "result"}),
		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Closest-match queries by pool source.",
		}, []string{"source"}),
	}
	if reg != nil {
		reg.MustRegister(m.UpstreamRequests, m.UpstreamDuration, m.UpstreamCache, m.CatalogLoads, m.Matches)
	}
	return m
}

// ObserveUpstream records one vendor request.
func (m *Metrics) ObserveUpstream(vendor, method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(vendor, method, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(vendor).Observe(d.Seconds())
}

// ObserveCache records a vendor cache lookup.
func (m *Metrics) ObserveCache(vendor, result string) {
	if m == nil {
		return
	}
	m.UpstreamCache.WithLabelValues(vendor, result).Inc()
}

// ObserveCatalogLoad records a partition load.
func (m *Metrics) ObserveCatalogLoad(partition, result string) {
	if m == nil {
		return
	}
	m.CatalogLoads.WithLabelValues(partition, result).Inc()
}

// ObserveMatch records a ranking query.
func (m *Metrics) ObserveMatch(source string) {
	if m == nil {
		return
	}
	m.Matches.WithLabelValues(source).Inc()
}
