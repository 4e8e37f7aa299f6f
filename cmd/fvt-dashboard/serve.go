package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/presentation"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API and charts over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cfg, svc, cleanupFunc, err := setup(ctx, registry)
	if err != nil {
		return err
	}
	defer cleanup(cleanupFunc)

	// the test log is required, so a broken source stops startup
	if _, err := svc.Load(ctx); err != nil {
		return err
	}

	sessions := server.NewSessionStore(cfg.SessionTTL)
	handler := server.NewDashboardService(
		svc,
		sessions,
		presentation.NewRenderer(cfg.ChartWidth, cfg.ChartHeight),
		server.NewMetrics(metricsNamespace, registry),
	)
	router := server.SetupRoutes(handler, registry)

	go pruneSessions(ctx, sessions, time.Minute)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down server")
		}
	}()

	log.Infof("Server starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func pruneSessions(ctx context.Context, sessions *server.SessionStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Prune(); removed > 0 {
				log.WithField("removed", removed).Debug("Pruned expired sessions")
			}
		}
	}
}
