package analytics

import (
	"strings"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

// IsFailure reports whether a raw status counts as a failed test.
func IsFailure(status string) bool {
	return strings.ToUpper(strings.TrimSpace(status)) == models.StatusFailed
}

// WeekStart returns the Monday 00:00 UTC of the ISO week containing t, or the
// zero time when t is zero.
func WeekStart(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Derive returns a copy of records with Fail and Week recomputed from Status
// and Date. The input slice is left untouched.
func Derive(records []models.TestRecord) []models.TestRecord {
	derived := make([]models.TestRecord, len(records))
	for i, record := range records {
		record.Fail = IsFailure(record.Status)
		record.Week = WeekStart(record.Date)
		derived[i] = record
	}
	return derived
}
