package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectDB(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return dbpool, nil
}

type PostgresDBManager struct {
	dbpool *pgxpool.Pool
}

func NewPostgresDBManager(pool *pgxpool.Pool) *PostgresDBManager {
	return &PostgresDBManager{dbpool: pool}
}

func (m *PostgresDBManager) CreateFileRecordsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS file_records (
		id SERIAL PRIMARY KEY,
		file_name VARCHAR(255) NOT NULL,
		processed_at TIMESTAMP NOT NULL,
		status VARCHAR(50) NOT NULL CHECK (status IN ('DONE', 'DONE_WITH_ERRORS', 'PROCESSING', 'FATAL')),
		checksum VARCHAR(64),
		errors jsonb
	);`

	_, err := m.dbpool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("error creating file_records table: %w", err)
	}

	return nil
}

// CreateTestResultsTable creates the table the dashboard reads test records
// from. date is nullable because the test log tolerates missing dates.
func (m *PostgresDBManager) CreateTestResultsTable(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS test_results (
			id BIGSERIAL PRIMARY KEY,
			date TIMESTAMP,
			base_type VARCHAR(32) NOT NULL,
			fvt VARCHAR(255) NOT NULL,
			status VARCHAR(64) NOT NULL,
			file_id INTEGER REFERENCES file_records (id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_test_results_base_type_fvt ON test_results (base_type, fvt);`,
	}

	for _, query := range queries {
		if _, err := m.dbpool.Exec(ctx, query); err != nil {
			return fmt.Errorf("error creating test_results table: %w", err)
		}
	}

	return nil
}

func (m *PostgresDBManager) IsFileAlreadyProcessed(ctx context.Context, checksum string) (bool, error) {
	query := `
	SELECT id
	FROM file_records
	WHERE checksum = $1 AND status IN ('DONE', 'DONE_WITH_ERRORS');`

	var id int

	err := m.dbpool.QueryRow(ctx, query, checksum).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error finding file record by checksum: %w", err)
	}

	return true, nil
}

func (m *PostgresDBManager) InsertFileRecord(ctx context.Context, fileName string, processedAt time.Time, status string, checksum string) (int, error) {
	query := `
	INSERT INTO file_records (file_name, processed_at, status, checksum)
	VALUES ($1, $2, $3, $4)
	RETURNING id;`

	var id int
	err := m.dbpool.QueryRow(ctx, query, fileName, processedAt, status, checksum).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error inserting file record: %w", err)
	}

	return id, nil
}

func (m *PostgresDBManager) UpdateFileStatus(ctx context.Context, fileID int, status string, problems any) error {
	query := `
	UPDATE file_records
	SET status = $1,
		errors = $2
	WHERE id = $3;`

	_, err := m.dbpool.Exec(ctx, query, status, problems, fileID)
	if err != nil {
		return fmt.Errorf("error updating file status: %w", err)
	}

	return nil
}

// InsertTestRecords bulk loads records with COPY inside one transaction.
func (m *PostgresDBManager) InsertTestRecords(ctx context.Context, fileID int, records []models.TestRecord) (int64, error) {
	tx, err := m.dbpool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The column order here must match the values returned below.
	columnNames := []string{"date", "base_type", "fvt", "status", "file_id"}

	copySource := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		record := records[i]
		var date *time.Time
		if record.HasDate() {
			date = &record.Date
		}
		return []any{date, record.BaseType, record.FVT, record.Status, fileID}, nil
	})

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"test_results"}, columnNames, copySource)
	if err != nil {
		return 0, fmt.Errorf("unable to copy test records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}
	return copied, nil
}

// TestRecords reads every stored test record in insertion order. Fail and
// Week are left for the derive step.
func (m *PostgresDBManager) TestRecords(ctx context.Context) ([]models.TestRecord, error) {
	query := `
	SELECT date, base_type, fvt, status
	FROM test_results
	ORDER BY id;`

	rows, err := m.dbpool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying test records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TestRecord, error) {
		var record models.TestRecord
		var date *time.Time
		if err := row.Scan(&date, &record.BaseType, &record.FVT, &record.Status); err != nil {
			return record, err
		}
		if date != nil {
			record.Date = date.UTC()
		}
		return record, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading test records: %w", err)
	}

	return records, nil
}
