package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLogContent = "Date,BaseType,FVT,Status\n2024-03-04,CD,FVT1,FAILED\n2024-03-05,CW,FVT2,PASSED\n"

const limitsContent = "FVT,BaseType,Test,Percent_out_of_limits\nFVT1,CD,TestA,0.12\n"

func writeFile(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestLoader_LoadTestRecords(t *testing.T) {
	base := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("should serve the same snapshot while the file is unchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, testLogContent, base)
		metrics := NewMetrics("test", nil)
		loader := NewLoader(models.ScaleAuto, metrics)

		first, report, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)
		require.Len(t, first, 2)
		assert.Equal(t, 2, report.Rows)

		second, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)
		assert.Same(t, &first[0], &second[0])
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(kindTests)))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHits.WithLabelValues(kindTests)))
	})

	t.Run("should keep the snapshot when the file is touched without changes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, testLogContent, base)
		metrics := NewMetrics("test", nil)
		loader := NewLoader(models.ScaleAuto, metrics)

		first, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)

		require.NoError(t, os.Chtimes(path, base.Add(time.Hour), base.Add(time.Hour)))
		second, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)

		assert.Same(t, &first[0], &second[0])
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(kindTests)))
	})

	t.Run("should reparse when the content changes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, testLogContent, base)
		loader := NewLoader(models.ScaleAuto, nil)

		first, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)
		require.Len(t, first, 2)

		writeFile(t, path, testLogContent+"2024-03-06,CD,FVT3,FAILED\n", base.Add(time.Minute))
		second, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)
		assert.Len(t, second, 3)
	})

	t.Run("should reparse after invalidation", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, testLogContent, base)
		metrics := NewMetrics("test", nil)
		loader := NewLoader(models.ScaleAuto, metrics)

		_, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)
		loader.Invalidate(path)
		_, _, err = loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)

		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(kindTests)))
	})

	t.Run("should collapse concurrent loads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, testLogContent, base)
		loader := NewLoader(models.ScaleAuto, nil)

		var wg sync.WaitGroup
		results := make([][]models.TestRecord, 8)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				records, _, err := loader.LoadTestRecords(ctx, path)
				assert.NoError(t, err)
				results[i] = records
			}(i)
		}
		wg.Wait()

		for _, records := range results {
			assert.Len(t, records, 2)
		}
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		loader := NewLoader(models.ScaleAuto, nil)

		_, _, err := loader.LoadTestRecords(ctx, filepath.Join(t.TempDir(), "missing.csv"))

		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("should not cache schema errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, "Date,FVT\n2024-03-04,FVT1\n", base)
		loader := NewLoader(models.ScaleAuto, nil)

		_, _, err := loader.LoadTestRecords(ctx, path)
		var schemaErr *models.SchemaError
		require.True(t, errors.As(err, &schemaErr))

		writeFile(t, path, testLogContent, base)
		records, _, err := loader.LoadTestRecords(ctx, path)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("should honor a cancelled context", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tests.csv")
		writeFile(t, path, testLogContent, base)
		loader := NewLoader(models.ScaleAuto, nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := loader.LoadTestRecords(cancelled, path)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoader_LoadLimitsRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.csv")
	writeFile(t, path, limitsContent, time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))

	t.Run("should normalize with the configured scale", func(t *testing.T) {
		dataset, _, err := NewLoader(models.ScaleAuto, nil).LoadLimitsRecords(ctx, path)

		require.NoError(t, err)
		require.Len(t, dataset.Records, 1)
		assert.InDelta(t, 12.0, dataset.Records[0].PercentOutOfLimits, 1e-9)

		dataset, _, err = NewLoader(models.ScalePercent, nil).LoadLimitsRecords(ctx, path)

		require.NoError(t, err)
		assert.InDelta(t, 0.12, dataset.Records[0].PercentOutOfLimits, 1e-9)
	})

	t.Run("should cache tests and limits of the same path separately", func(t *testing.T) {
		loader := NewLoader(models.ScaleAuto, nil)

		_, _, err := loader.LoadLimitsRecords(ctx, path)
		require.NoError(t, err)
		_, _, err = loader.LoadTestRecords(ctx, path)
		var schemaErr *models.SchemaError
		assert.True(t, errors.As(err, &schemaErr))
	})
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	testsPath := filepath.Join(dir, "tests.csv")
	limitsPath := filepath.Join(dir, "limits.csv")
	modTime := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	writeFile(t, testsPath, testLogContent, modTime)
	writeFile(t, limitsPath, limitsContent, modTime)

	source := NewFileSource(NewLoader(models.ScaleAuto, nil), testsPath, limitsPath)

	records, err := source.TestRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	dataset, err := source.LimitsRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, dataset.Records, 1)
}
