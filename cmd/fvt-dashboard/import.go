package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/config"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/database"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/ingestion"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newImportCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Import test-log CSV files into the test_results table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(ctx, args[0])
		},
	}
}

func runImport(ctx context.Context, filesPath string) error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.SetLevel(cfg.LogLevel)
	if !cfg.UseDatabase() {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	dbpool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer cleanup(dbpool.Close)

	handler := ingestion.NewIngestionService(
		database.NewPostgresDBManager(dbpool),
		ingestion.NewFileProcessor(),
		cfg.NumParserWorkers,
	)

	log.Info("Starting import...")
	if _, err := handler.Execute(ctx, filesPath); err != nil {
		return fmt.Errorf("error during import: %w", err)
	}
	log.Infof("Execution time: %s", time.Since(startTime))
	return nil
}
