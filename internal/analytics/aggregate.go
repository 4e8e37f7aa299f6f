package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

type group struct {
	week     time.Time
	total    int
	failures int
}

// FailureRateBy groups records by key and returns one row per group with the
// share of failed tests scaled to 0-100. Rows come out in ascending key order
// (chronological for weeks). Records without a week are left out of week
// grouping only.
func FailureRateBy(records []models.TestRecord, key models.GroupKey) ([]models.FailureRate, error) {
	keyFunc, err := keyExtractor(key)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*group)
	for i := range records {
		record := &records[i]
		if key == models.GroupByWeek && !record.HasWeek() {
			continue
		}
		k := keyFunc(record)
		g, exists := groups[k]
		if !exists {
			g = &group{week: record.Week}
			groups[k] = g
		}
		g.total++
		if record.Fail {
			g.failures++
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	// week keys are formatted as 2006-01-02 so string order is chronological
	sort.Strings(keys)

	rates := make([]models.FailureRate, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		rate := models.FailureRate{
			Key:         k,
			Total:       g.total,
			Failures:    g.failures,
			FailRatePct: failurePct(g.failures, g.total),
		}
		if key == models.GroupByWeek {
			rate.Week = g.week
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

func failurePct(failures, total int) float64 {
	switch failures {
	case 0:
		return 0
	case total:
		return 100
	}
	return 100 * float64(failures) / float64(total)
}

func keyExtractor(key models.GroupKey) (func(*models.TestRecord) string, error) {
	switch key {
	case models.GroupByBaseType:
		return func(r *models.TestRecord) string { return r.BaseType }, nil
	case models.GroupByFVT:
		return func(r *models.TestRecord) string { return r.FVT }, nil
	case models.GroupByWeek:
		return func(r *models.TestRecord) string { return r.Week.Format("2006-01-02") }, nil
	}
	return nil, fmt.Errorf("unsupported group key %q", key)
}

// RateFor returns the failure rate of the group named key. The boolean is false
// when the group is absent, which callers must treat as "no data", not 0%.
func RateFor(rates []models.FailureRate, key string) (float64, bool) {
	for _, rate := range rates {
		if rate.Key == key {
			return rate.FailRatePct, true
		}
	}
	return 0, false
}

// SortByRateDesc returns a copy of rates ordered from highest to lowest
// failure rate. Ties keep their grouping order.
func SortByRateDesc(rates []models.FailureRate) []models.FailureRate {
	sorted := make([]models.FailureRate, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FailRatePct > sorted[j].FailRatePct
	})
	return sorted
}

// LimitsRateBy returns the limits rows matching every non-empty field of the
// filter, in their original order.
func LimitsRateBy(records []models.LimitsRecord, filter models.LimitsFilter) []models.LimitsRecord {
	matched := make([]models.LimitsRecord, 0)
	for i := range records {
		if filter.Matches(&records[i]) {
			matched = append(matched, records[i])
		}
	}
	return matched
}

// DistinctBaseTypes returns the sorted product types present in records.
func DistinctBaseTypes(records []models.TestRecord) []string {
	seen := make(map[string]bool)
	for i := range records {
		seen[records[i].BaseType] = true
	}
	return sortedKeys(seen)
}

// DistinctFVTs returns the sorted FVTs observed under baseType.
func DistinctFVTs(records []models.TestRecord, baseType string) []string {
	seen := make(map[string]bool)
	for i := range records {
		if records[i].BaseType == baseType {
			seen[records[i].FVT] = true
		}
	}
	return sortedKeys(seen)
}

func DistinctLimitsBaseTypes(records []models.LimitsRecord) []string {
	seen := make(map[string]bool)
	for i := range records {
		seen[records[i].BaseType] = true
	}
	return sortedKeys(seen)
}

func DistinctLimitsFVTs(records []models.LimitsRecord, baseType string) []string {
	seen := make(map[string]bool)
	for i := range records {
		if records[i].BaseType == baseType {
			seen[records[i].FVT] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
