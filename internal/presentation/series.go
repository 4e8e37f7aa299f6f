package presentation

import (
	"sort"
	"strconv"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
)

type Kind string

const (
	KindBar   Kind = "bar"
	KindTrend Kind = "trend"
)

const (
	TitleProduct = "Failure rate by product type"
	TitleFVT     = "Failure rate by FVT"
	TitleTrend   = "Weekly failure trend"
	TitleLimits  = "GetAngle readings out of limits"

	labelFailRate = "% failed"
	labelOutside  = "% out of limits"
	weekLayout    = "2006-01-02"
	displayDigits = 2
)

// Point is one axis-ready value. Time is only set for trend series.
type Point struct {
	Label   string    `json:"label" yaml:"label"`
	Time    time.Time `json:"time,omitempty" yaml:"time,omitempty"`
	Value   float64   `json:"value" yaml:"value"`
	Display string    `json:"display" yaml:"display"`
}

// Series is what a chart renderer or report consumer draws. Values are on the
// 0-100 percent scale.
type Series struct {
	Title  string  `json:"title" yaml:"title"`
	XLabel string  `json:"x_label" yaml:"x_label"`
	YLabel string  `json:"y_label" yaml:"y_label"`
	Kind   Kind    `json:"kind" yaml:"kind"`
	Points []Point `json:"points" yaml:"points"`
}

func (s Series) Empty() bool {
	return len(s.Points) == 0
}

// FormatPct renders a percent value with a fixed number of decimals, e.g.
// FormatPct(66.666, 2) == "66.67%".
func FormatPct(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

func ratePoint(rate models.FailureRate) Point {
	return Point{
		Label:   rate.Key,
		Value:   rate.FailRatePct,
		Display: FormatPct(rate.FailRatePct, displayDigits),
	}
}

// BarSeries orders rates from highest to lowest. Ties keep the order they
// were grouped in.
func BarSeries(title, xLabel string, rates []models.FailureRate) Series {
	points := make([]Point, 0, len(rates))
	for _, rate := range rates {
		points = append(points, ratePoint(rate))
	}
	sortDesc(points)
	return Series{Title: title, XLabel: xLabel, YLabel: labelFailRate, Kind: KindBar, Points: points}
}

// ProductSeries keeps the product types in grouping order so CD and CW always
// appear in the same place.
func ProductSeries(rates []models.FailureRate) Series {
	points := make([]Point, 0, len(rates))
	for _, rate := range rates {
		points = append(points, ratePoint(rate))
	}
	return Series{Title: TitleProduct, XLabel: "Product", YLabel: labelFailRate, Kind: KindBar, Points: points}
}

func FVTSeries(rates []models.FailureRate) Series {
	return BarSeries(TitleFVT, "FVT", rates)
}

// TrendSeries orders weekly rates chronologically.
func TrendSeries(rates []models.FailureRate) Series {
	points := make([]Point, 0, len(rates))
	for _, rate := range rates {
		point := ratePoint(rate)
		point.Time = rate.Week
		point.Label = rate.Week.Format(weekLayout)
		points = append(points, point)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return Series{Title: TitleTrend, XLabel: "Week", YLabel: labelFailRate, Kind: KindTrend, Points: points}
}

// LimitsSeries charts each test by its display label, highest share out of
// limits first. When the records span several FVTs the FVT prefixes the label
// so bars stay distinguishable.
func LimitsSeries(records []models.LimitsRecord) Series {
	fvts := make(map[string]bool)
	for i := range records {
		fvts[records[i].FVT] = true
	}

	points := make([]Point, 0, len(records))
	for i := range records {
		label := records[i].Label
		if label == "" {
			label = records[i].Test
		}
		if len(fvts) > 1 {
			label = records[i].FVT + " " + label
		}
		points = append(points, Point{
			Label:   label,
			Value:   records[i].PercentOutOfLimits,
			Display: FormatPct(records[i].PercentOutOfLimits, displayDigits),
		})
	}
	sortDesc(points)
	return Series{Title: TitleLimits, XLabel: "Test", YLabel: labelOutside, Kind: KindBar, Points: points}
}

func sortDesc(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value > points[j].Value
	})
}
