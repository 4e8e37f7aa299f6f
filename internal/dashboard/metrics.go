package dashboard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics times pipeline runs. A nil *Metrics is a valid no-op.
type Metrics struct {
	BuildDuration *prometheus.HistogramVec
}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dashboard_build_duration_seconds",
				Help:      "time spent aggregating one dashboard view",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"result"},
		),
	}
	if registerer != nil {
		registerer.MustRegister(m.BuildDuration)
	}
	return m
}

func (m *Metrics) observe(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.BuildDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}
