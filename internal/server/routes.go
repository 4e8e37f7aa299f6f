package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(dashboardHandler *DashboardService, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	m := dashboardHandler.Metrics

	mux.HandleFunc("GET /api/options", m.HandleWithMetrics("/api/options", dashboardHandler.GetOptions))
	mux.HandleFunc("GET /api/dashboard", m.HandleWithMetrics("/api/dashboard", dashboardHandler.GetDashboard))
	mux.HandleFunc("POST /api/selection", m.HandleWithMetrics("/api/selection", dashboardHandler.PostSelection))
	mux.HandleFunc("GET /charts/", m.HandleWithMetrics("/charts", dashboardHandler.GetChart))
	mux.HandleFunc("GET /healthz", dashboardHandler.Healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}
