package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testLog = `Date,BaseType,FVT,Status
2024-03-04,CD,FVT1,Failed
2024-03-05,CD,FVT1,Passed
2024-03-12,CD,FVT2,FAILED
2024-03-04,CW,FVT7,PASSED
`

const limitsSummary = `FVT,BaseType,Test,Percent_out_of_limits,Test_label
FVT1,CD,TestA,0.12,Angle A
FVT7,CW,TestA,0.02,Angle A
`

func setupEnv(t *testing.T, limits string) string {
	t.Helper()
	dir := t.TempDir()
	testsPath := filepath.Join(dir, "tests.csv")
	limitsPath := filepath.Join(dir, "limits.csv")
	require.NoError(t, os.WriteFile(testsPath, []byte(testLog), 0644))
	require.NoError(t, os.WriteFile(limitsPath, []byte(limits), 0644))

	t.Setenv("TEST_DATA_PATH", testsPath)
	t.Setenv("LIMITS_DATA_PATH", limitsPath)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LIMITS_PERCENT_SCALE", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func runReport(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(context.Background())
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"report"}, args...))
	return &out, cmd.Execute()
}

func TestReportCommand(t *testing.T) {
	t.Run("should print the default selection as json", func(t *testing.T) {
		setupEnv(t, limitsSummary)

		out, err := runReport(t)

		require.NoError(t, err)
		var view dashboard.View
		require.NoError(t, json.Unmarshal(out.Bytes(), &view))
		assert.Equal(t, "CD", view.Selection.BaseType)
		require.Len(t, view.FVTRates, 2)
		assert.Equal(t, 50.0, view.FVTRates[0].FailRatePct)
		assert.Equal(t, 100.0, view.FVTRates[1].FailRatePct)
		require.Len(t, view.Limits.Records, 1)
		assert.InDelta(t, 12.0, view.Limits.Records[0].PercentOutOfLimits, 1e-9)
	})

	t.Run("should apply flags and print yaml", func(t *testing.T) {
		setupEnv(t, limitsSummary)

		out, err := runReport(t, "--base-type", "CW", "--limits-base-type", "CW", "--format", "yaml")

		require.NoError(t, err)
		var view map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &view))
		sel := view["selection"].(map[string]any)
		assert.Equal(t, "CW", sel["base_type"])
		assert.Equal(t, "CW", sel["limits_base_type"])
	})

	t.Run("should keep working when the limits summary is unusable", func(t *testing.T) {
		setupEnv(t, "FVT,BaseType,Test\nFVT1,CD,TestA\n")

		out, err := runReport(t)

		require.NoError(t, err)
		var view dashboard.View
		require.NoError(t, json.Unmarshal(out.Bytes(), &view))
		assert.True(t, view.Limits.Unavailable)
		assert.NotEmpty(t, view.FVTRates)
	})

	t.Run("should write charts", func(t *testing.T) {
		dir := setupEnv(t, limitsSummary)
		chartsDir := filepath.Join(dir, "charts")

		_, err := runReport(t, "--charts-dir", chartsDir)

		require.NoError(t, err)
		for _, name := range []string{"product", "fvt", "trend", "limits"} {
			assert.FileExists(t, filepath.Join(chartsDir, name+".png"))
		}
	})

	t.Run("should reject unknown base types", func(t *testing.T) {
		setupEnv(t, limitsSummary)

		_, err := runReport(t, "--base-type", "XX")

		assert.Error(t, err)
	})

	t.Run("should reject unknown formats", func(t *testing.T) {
		setupEnv(t, limitsSummary)

		_, err := runReport(t, "--format", "xml")

		assert.ErrorContains(t, err, "unsupported format")
	})

	t.Run("should fail when the test log is missing", func(t *testing.T) {
		setupEnv(t, limitsSummary)
		t.Setenv("TEST_DATA_PATH", filepath.Join(t.TempDir(), "missing.csv"))

		_, err := runReport(t)

		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestImportCommand(t *testing.T) {
	t.Run("should require a database", func(t *testing.T) {
		setupEnv(t, limitsSummary)
		cmd := newRootCommand(context.Background())
		cmd.SetArgs([]string{"import", "logs"})

		err := cmd.Execute()

		assert.ErrorContains(t, err, "DATABASE_URL")
	})
}
