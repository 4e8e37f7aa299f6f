package models

import (
	"time"
)

const (
	BaseTypeDryer  = "CD"
	BaseTypeWasher = "CW"

	StatusFailed = "FAILED"
)

// TestRecord is one executed test from the test log. Fail and Week are derived
// from Status and Date and are only set by the analytics package.
type TestRecord struct {
	Date     time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	BaseType string    `json:"base_type" yaml:"base_type"`
	FVT      string    `json:"fvt" yaml:"fvt"`
	Status   string    `json:"status" yaml:"status"`
	Fail     bool      `json:"fail" yaml:"fail"`
	Week     time.Time `json:"week,omitempty" yaml:"week,omitempty"`
}

func (r *TestRecord) HasDate() bool {
	return r.Date != time.Time{}
}

func (r *TestRecord) HasWeek() bool {
	return r.Week != time.Time{}
}

// LimitsRecord is one GetAngle control-limit check. PercentOutOfLimits is on
// the 0-100 display scale, RawPercent keeps the value as it was read.
type LimitsRecord struct {
	BaseType           string  `json:"base_type" yaml:"base_type"`
	FVT                string  `json:"fvt" yaml:"fvt"`
	Test               string  `json:"test" yaml:"test"`
	Label              string  `json:"label" yaml:"label"`
	ColumnUsed         string  `json:"column_used,omitempty" yaml:"column_used,omitempty"`
	RawPercent         float64 `json:"raw_percent" yaml:"raw_percent"`
	PercentOutOfLimits float64 `json:"percent_out_of_limits" yaml:"percent_out_of_limits"`
}

type PercentScale string

const (
	ScaleAuto     PercentScale = "auto"
	ScaleFraction PercentScale = "fraction"
	ScalePercent  PercentScale = "percent"
)

// FractionThreshold is the largest raw maximum still read as a 0-1 fraction
// when the scale is detected automatically.
const FractionThreshold = 1.5

func ParsePercentScale(s string) (PercentScale, bool) {
	switch PercentScale(s) {
	case ScaleAuto, ScaleFraction, ScalePercent:
		return PercentScale(s), true
	case "":
		return ScaleAuto, true
	}
	return "", false
}

// LimitsDataset is a loaded limits summary together with the unit that was
// applied to it.
type LimitsDataset struct {
	Records []LimitsRecord `json:"records" yaml:"records"`
	Scale   PercentScale   `json:"scale" yaml:"scale"`
}

type GroupKey string

const (
	GroupByBaseType GroupKey = "base_type"
	GroupByFVT      GroupKey = "fvt"
	GroupByWeek     GroupKey = "week"
)

// FailureRate is one row of a grouped failure-rate aggregate. Week is only
// set when grouping by week.
type FailureRate struct {
	Key         string    `json:"key" yaml:"key"`
	Week        time.Time `json:"week,omitempty" yaml:"week,omitempty"`
	Total       int       `json:"total" yaml:"total"`
	Failures    int       `json:"failures" yaml:"failures"`
	FailRatePct float64   `json:"fail_rate_pct" yaml:"fail_rate_pct"`
}

// LimitsFilter narrows a limits dataset. Empty fields do not filter.
type LimitsFilter struct {
	BaseType string `json:"base_type,omitempty" yaml:"base_type,omitempty"`
	FVT      string `json:"fvt,omitempty" yaml:"fvt,omitempty"`
	Test     string `json:"test,omitempty" yaml:"test,omitempty"`
}

func (f LimitsFilter) Matches(r *LimitsRecord) bool {
	return (f.BaseType == "" || r.BaseType == f.BaseType) &&
		(f.FVT == "" || r.FVT == f.FVT) &&
		(f.Test == "" || r.Test == f.Test)
}
