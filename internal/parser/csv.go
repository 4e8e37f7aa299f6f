package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

// Test log columns.
const (
	ColumnDate     = "Date"
	ColumnBaseType = "BaseType"
	ColumnFVT      = "FVT"
	ColumnStatus   = "Status"
)

// Limits summary columns. ColumnPercentAlias is only used when
// ColumnPercent is absent.
const (
	ColumnTest          = "Test"
	ColumnPercent       = "Percent_out_of_limits"
	ColumnPercentAlias  = "Percent"
	ColumnTestLabel     = "Test_label"
	ColumnTestColumnUse = "Test_col_used"
)

// Month and day are unpadded so exports like 1/5/2024 parse; Go still accepts
// the padded form for these layouts.
var dateLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	time.RFC3339,
	"2006-1-2T15:04:05",
	"2006-1-2 15:04",
	"2006/1/2",
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2-Jan-2006",
}

// header maps trimmed, lower-cased column names to their index.
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := h[key]; !exists {
			h[key] = i
		}
	}
	return h
}

func (h header) index(name string) (int, bool) {
	i, ok := h[strings.ToLower(name)]
	return i, ok
}

func (h header) missing(names ...string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := h.index(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func readHeader(reader *csv.Reader, source string) (header, error) {
	record, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s is empty", source)
		}
		return nil, fmt.Errorf("failed to read header from %s: %w", source, err)
	}
	return newHeader(record), nil
}

func errorLine(err error) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.StartLine
	}
	return 0
}

// ParseDate parses a test date leniently. Empty or unrecognised values yield
// the zero time and false.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTestRecords reads a test log CSV. Missing required columns are a
// SchemaError; bad dates and malformed lines are reported and degraded.
func ParseTestRecords(r io.Reader, source string) ([]models.TestRecord, *models.ParseReport, error) {
	reader := newReader(r)
	h, err := readHeader(reader, source)
	if err != nil {
		return nil, nil, err
	}
	if missing := h.missing(ColumnDate, ColumnBaseType, ColumnFVT, ColumnStatus); len(missing) > 0 {
		return nil, nil, &models.SchemaError{Source: source, Missing: missing}
	}

	dateIdx, _ := h.index(ColumnDate)
	baseTypeIdx, _ := h.index(ColumnBaseType)
	fvtIdx, _ := h.index(ColumnFVT)
	statusIdx, _ := h.index(ColumnStatus)

	report := &models.ParseReport{Source: source}
	records := make([]models.TestRecord, 0)
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

		rawDate := field(record, dateIdx)
		date, ok := ParseDate(rawDate)
		if !ok && rawDate != "" {
			report.Add(line, fmt.Sprintf("unparseable date %q treated as missing", rawDate), nil)
		}

		records = append(records, models.TestRecord{
			Date:     date,
			BaseType: field(record, baseTypeIdx),
			FVT:      field(record, fvtIdx),
			Status:   field(record, statusIdx),
		})
	}

	return records, report, nil
}
