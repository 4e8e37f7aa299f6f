package parser

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

// ParseLimitsRecords reads a GetAngle limits summary CSV and normalizes the
// percent column to the 0-100 display scale.
func ParseLimitsRecords(r io.Reader, source string, scale models.PercentScale) (*models.LimitsDataset, *models.ParseReport, error) {
	reader := newReader(r)
	h, err := readHeader(reader, source)
	if err != nil {
		return nil, nil, err
	}

	missing := h.missing(ColumnFVT, ColumnBaseType, ColumnTest)
	percentIdx, ok := h.index(ColumnPercent)
	if !ok {
		percentIdx, ok = h.index(ColumnPercentAlias)
	}
	if !ok {
		missing = append(missing, ColumnPercent)
	}
	if len(missing) > 0 {
		return nil, nil, &models.SchemaError{Source: source, Missing: missing}
	}

	fvtIdx, _ := h.index(ColumnFVT)
	baseTypeIdx, _ := h.index(ColumnBaseType)
	testIdx, _ := h.index(ColumnTest)
	labelIdx, hasLabel := h.index(ColumnTestLabel)
	if !hasLabel {
		labelIdx = -1
	}
	columnUsedIdx, hasColumnUsed := h.index(ColumnTestColumnUse)
	if !hasColumnUsed {
		columnUsedIdx = -1
	}

	report := &models.ParseReport{Source: source}
	records := make([]models.LimitsRecord, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Add(errorLine(err), "failed to read record", err)
			continue // Skip corrupted lines
		}
		report.Rows++
		line, _ := reader.FieldPos(0)

		raw, err := parsePercent(field(record, percentIdx))
		if err != nil {
			report.Skipped++
			report.Add(line, "invalid percent out of limits, row excluded", err)
			continue
		}

		test := field(record, testIdx)
		columnUsed := field(record, columnUsedIdx)
		records = append(records, models.LimitsRecord{
			BaseType:   field(record, baseTypeIdx),
			FVT:        field(record, fvtIdx),
			Test:       test,
			Label:      firstNonEmpty(field(record, labelIdx), columnUsed, test),
			ColumnUsed: columnUsed,
			RawPercent: raw,
		})
	}

	applied := Normalize(records, scale)
	return &models.LimitsDataset{Records: records, Scale: applied}, report, nil
}

// Normalize sets PercentOutOfLimits on every record from RawPercent and returns
// the scale that was applied. With ScaleAuto the dataset is read as a 0-1
// fraction when its largest raw value is at most models.FractionThreshold.
func Normalize(records []models.LimitsRecord, scale models.PercentScale) models.PercentScale {
	if scale == models.ScaleAuto || scale == "" {
		scale = DetectScale(records)
	}

	factor := 1.0
	if scale == models.ScaleFraction {
		factor = 100
	}
	for i := range records {
		records[i].PercentOutOfLimits = records[i].RawPercent * factor
	}
	return scale
}

// DetectScale guesses the unit of a limits dataset from its largest value.
func DetectScale(records []models.LimitsRecord) models.PercentScale {
	if len(records) == 0 {
		return models.ScaleFraction
	}
	highest := records[0].RawPercent
	for _, record := range records[1:] {
		if record.RawPercent > highest {
			highest = record.RawPercent
		}
	}
	if highest <= models.FractionThreshold {
		return models.ScaleFraction
	}
	return models.ScalePercent
}

func parsePercent(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}
	value = strings.Replace(value, ",", ".", 1)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, fmt.Errorf("non-finite value %q", value)
	}
	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
