package database

import (
	"context"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

const (
	FileStatusProcessing     = "PROCESSING"
	FileStatusDone           = "DONE"
	FileStatusDoneWithErrors = "DONE_WITH_ERRORS"
	FileStatusFatal          = "FATAL"
)

type DBManager interface {
	CreateFileRecordsTable(ctx context.Context) error
	CreateTestResultsTable(ctx context.Context) error
	IsFileAlreadyProcessed(ctx context.Context, checksum string) (bool, error)
	InsertFileRecord(ctx context.Context, fileName string, processedAt time.Time, status string, checksum string) (int, error)
	UpdateFileStatus(ctx context.Context, fileID int, status string, problems any) error
	InsertTestRecords(ctx context.Context, fileID int, records []models.TestRecord) (int64, error)
	TestRecords(ctx context.Context) ([]models.TestRecord, error)
}
