package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/database"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/parser"
	"github.com/ThiagoRGoveia/fvt-dashboard/pkg/checksum"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Summary counts what one import run did.
type Summary struct {
	Files    int   `json:"files" yaml:"files"`
	Skipped  int   `json:"skipped" yaml:"skipped"`
	Failed   int   `json:"failed" yaml:"failed"`
	Problems int   `json:"problems" yaml:"problems"`
	Records  int64 `json:"records" yaml:"records"`
}

type IngestionService struct {
	dbManager     database.DBManager
	fileProcessor Processor
	numWorkers    int

	mu      sync.Mutex
	summary Summary
	claimed map[string]bool
}

func NewIngestionService(dbManager database.DBManager, processor Processor, numWorkers int) *IngestionService {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &IngestionService{
		dbManager:     dbManager,
		fileProcessor: processor,
		numWorkers:    numWorkers,
	}
}

// Execute imports every test-log CSV under filesPath into test_results. Files
// whose content was already imported, or that repeat the content of another
// file in the same run, are skipped, so reruns are idempotent.
// A file that cannot be parsed is marked FATAL and does not stop the others.
func (h *IngestionService) Execute(ctx context.Context, filesPath string) (Summary, error) {
	h.summary = Summary{}
	h.claimed = make(map[string]bool)

	if err := h.dbManager.CreateFileRecordsTable(ctx); err != nil {
		return Summary{}, err
	}
	if err := h.dbManager.CreateTestResultsTable(ctx); err != nil {
		return Summary{}, err
	}

	paths, err := h.fileProcessor.ScanForFiles(filesPath)
	if err != nil {
		return Summary{}, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.numWorkers)
	for _, path := range paths {
		g.Go(func() error {
			return h.processFile(ctx, path)
		})
	}
	if err := g.Wait(); err != nil {
		return h.result(), err
	}

	summary := h.result()
	log.WithFields(log.Fields{
		"files":    summary.Files,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
		"records":  summary.Records,
		"problems": summary.Problems,
	}).Info("Import finished")
	return summary, nil
}

func (h *IngestionService) processFile(ctx context.Context, path string) error {
	logger := log.WithField("file", path)

	sum, err := checksum.GetFileChecksum(path)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", path, err)
	}

	// identical files in one run are only imported once
	if !h.claim(sum) {
		logger.Info("Same content already queued in this run, skipping")
		h.record(func(s *Summary) { s.Files++; s.Skipped++ })
		return nil
	}

	processed, err := h.dbManager.IsFileAlreadyProcessed(ctx, sum)
	if err != nil {
		return err
	}
	if processed {
		logger.Info("File already imported, skipping")
		h.record(func(s *Summary) { s.Files++; s.Skipped++ })
		return nil
	}

	fileID, err := h.dbManager.InsertFileRecord(ctx, filepath.Base(path), time.Now(), database.FileStatusProcessing, sum)
	if err != nil {
		return err
	}

	records, report, err := parseFile(path)
	if err != nil {
		logger.WithError(err).Error("Failed to parse file")
		h.record(func(s *Summary) { s.Files++; s.Failed++ })
		return h.dbManager.UpdateFileStatus(ctx, fileID, database.FileStatusFatal, []string{err.Error()})
	}

	copied, err := h.dbManager.InsertTestRecords(ctx, fileID, records)
	if err != nil {
		if updateErr := h.dbManager.UpdateFileStatus(ctx, fileID, database.FileStatusFatal, []string{err.Error()}); updateErr != nil {
			logger.WithError(updateErr).Error("Failed to update file status")
		}
		return err
	}

	status := database.FileStatusDone
	if report.Problems() > 0 {
		status = database.FileStatusDoneWithErrors
	}
	if err := h.dbManager.UpdateFileStatus(ctx, fileID, status, report.Messages()); err != nil {
		return err
	}

	logger.WithFields(log.Fields{"records": copied, "status": status}).Info("File imported")
	h.record(func(s *Summary) {
		s.Files++
		s.Records += copied
		s.Problems += report.Problems()
	})
	return nil
}

func parseFile(path string) ([]models.TestRecord, *models.ParseReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	return parser.ParseTestRecords(file, path)
}

func (h *IngestionService) record(update func(*Summary)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	update(&h.summary)
}

// claim reports whether sum was not yet taken by another file of this run.
func (h *IngestionService) claim(sum string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.claimed[sum] {
		return false
	}
	h.claimed[sum] = true
	return true
}

func (h *IngestionService) result() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.summary
}
