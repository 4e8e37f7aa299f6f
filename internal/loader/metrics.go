package loader

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache hits and misses per source kind. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_cache_hits_total",
				Help:      "number of source loads served from the cache",
			},
			[]string{"kind"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_cache_misses_total",
				Help:      "number of source loads that parsed the file",
			},
			[]string{"kind"},
		),
	}
	if registerer != nil {
		registerer.MustRegister(m.CacheHits, m.CacheMisses)
	}
	return m
}

func (m *Metrics) hit(kind string) {
	if m != nil {
		m.CacheHits.With(prometheus.Labels{"kind": kind}).Inc()
	}
}

func (m *Metrics) miss(kind string) {
	if m != nil {
		m.CacheMisses.With(prometheus.Labels{"kind": kind}).Inc()
	}
}
