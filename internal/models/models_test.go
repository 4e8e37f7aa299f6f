package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaError_Error(t *testing.T) {
	err := &SchemaError{Source: "limits.csv", Missing: []string{"FVT", "Test"}}

	assert.Equal(t, "limits.csv: missing required columns: FVT, Test", err.Error())
}

func TestParseReport_Add(t *testing.T) {
	t.Run("should keep errors up to the cap and count the rest", func(t *testing.T) {
		report := &ParseReport{}
		for i := 0; i < MaxRowErrors+5; i++ {
			report.Add(i+2, "bad row", nil)
		}

		assert.Len(t, report.Errors, MaxRowErrors)
		assert.Equal(t, 5, report.Truncated)
		assert.Equal(t, MaxRowErrors+5, report.Problems())
	})

	t.Run("should unwrap the underlying error", func(t *testing.T) {
		cause := errors.New("boom")
		report := &ParseReport{}
		report.Add(3, "bad percent", cause)

		assert.ErrorIs(t, &report.Errors[0], cause)
		assert.Equal(t, "line 3: bad percent - boom", report.Errors[0].Error())
	})

	t.Run("should render messages", func(t *testing.T) {
		report := &ParseReport{}
		report.Add(2, "bad date", nil)

		assert.Equal(t, []string{"line 2: bad date"}, report.Messages())
	})
}

func TestLimitsFilter_Matches(t *testing.T) {
	record := &LimitsRecord{BaseType: BaseTypeDryer, FVT: "FVT1", Test: "GetAngle_X"}

	assert.True(t, LimitsFilter{}.Matches(record))
	assert.True(t, LimitsFilter{BaseType: BaseTypeDryer}.Matches(record))
	assert.True(t, LimitsFilter{BaseType: BaseTypeDryer, FVT: "FVT1", Test: "GetAngle_X"}.Matches(record))
	assert.False(t, LimitsFilter{BaseType: BaseTypeWasher}.Matches(record))
	assert.False(t, LimitsFilter{BaseType: BaseTypeDryer, FVT: "FVT2"}.Matches(record))
}

func TestParsePercentScale(t *testing.T) {
	scale, ok := ParsePercentScale("")
	assert.True(t, ok)
	assert.Equal(t, ScaleAuto, scale)

	scale, ok = ParsePercentScale("fraction")
	assert.True(t, ok)
	assert.Equal(t, ScaleFraction, scale)

	_, ok = ParsePercentScale("ratio")
	assert.False(t, ok)
}
