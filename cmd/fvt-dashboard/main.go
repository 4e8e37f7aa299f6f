package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/config"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/dashboard"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/database"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/loader"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const metricsNamespace = "fvt_dashboard"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("could not load .env file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(ctx).Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fvt-dashboard",
		Short:         "Failure-rate dashboard for FVT test logs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand(ctx), newReportCommand(ctx), newImportCommand(ctx))
	return cmd
}

// setup wires the dashboard pipeline to its sources. The returned cleanup
// function releases the database pool when one was opened.
func setup(ctx context.Context, registerer prometheus.Registerer) (*config.Config, *dashboard.Service, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevel(cfg.LogLevel)

	cache := loader.NewLoader(cfg.PercentScale, loader.NewMetrics(metricsNamespace, registerer))
	files := loader.NewFileSource(cache, cfg.TestDataPath, cfg.LimitsDataPath)

	var tests dashboard.TestRecordSource = files
	cleanupFunc := func() {}
	if cfg.UseDatabase() {
		dbpool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("Reading test records from the database")
		tests = database.NewPostgresDBManager(dbpool)
		cleanupFunc = dbpool.Close
	}

	svc := dashboard.NewService(tests, files, dashboard.NewMetrics(metricsNamespace, registerer))
	return cfg, svc, cleanupFunc, nil
}

func cleanup(cleanupFunc func()) {
	log.Debug("Cleaning up resources...")
	cleanupFunc()
}
