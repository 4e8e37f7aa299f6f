package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a disposable database named by TEST_DATABASE_URL.
func newTestManager(t *testing.T) (*PostgresDBManager, context.Context) {
	t.Helper()
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	dbpool, err := ConnectDB(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(dbpool.Close)

	manager := NewPostgresDBManager(dbpool)
	require.NoError(t, manager.CreateFileRecordsTable(ctx))
	require.NoError(t, manager.CreateTestResultsTable(ctx))
	return manager, ctx
}

func TestPostgresDBManager_FileRecords(t *testing.T) {
	manager, ctx := newTestManager(t)
	checksum := uuid.NewString()

	processed, err := manager.IsFileAlreadyProcessed(ctx, checksum)
	require.NoError(t, err)
	assert.False(t, processed)

	fileID, err := manager.InsertFileRecord(ctx, "tests.csv", time.Now(), FileStatusProcessing, checksum)
	require.NoError(t, err)

	processed, err = manager.IsFileAlreadyProcessed(ctx, checksum)
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, manager.UpdateFileStatus(ctx, fileID, FileStatusDone, []models.RowError{{Line: 2, Message: "bad date"}}))

	processed, err = manager.IsFileAlreadyProcessed(ctx, checksum)
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestPostgresDBManager_TestRecords(t *testing.T) {
	manager, ctx := newTestManager(t)
	fvt := "FVT-" + uuid.NewString()
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	fileID, err := manager.InsertFileRecord(ctx, "tests.csv", time.Now(), FileStatusProcessing, uuid.NewString())
	require.NoError(t, err)

	copied, err := manager.InsertTestRecords(ctx, fileID, []models.TestRecord{
		{Date: date, BaseType: "CD", FVT: fvt, Status: "FAILED"},
		{BaseType: "CD", FVT: fvt, Status: "PASSED"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), copied)

	records, err := manager.TestRecords(ctx)
	require.NoError(t, err)

	var stored []models.TestRecord
	for _, record := range records {
		if record.FVT == fvt {
			stored = append(stored, record)
		}
	}
	require.Len(t, stored, 2)
	assert.Equal(t, date, stored[0].Date)
	assert.Equal(t, "FAILED", stored[0].Status)
	assert.False(t, stored[1].HasDate())
}
