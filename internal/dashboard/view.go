package dashboard

import (
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/analytics"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/presentation"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/selection"
)

const (
	ChartProduct = "product"
	ChartFVT     = "fvt"
	ChartTrend   = "trend"
	ChartLimits  = "limits"
)

// Comparison is the global failure rate of one product type. Present is false
// when the type has no records, which is not the same as 0%.
type Comparison struct {
	BaseType    string  `json:"base_type" yaml:"base_type"`
	Present     bool    `json:"present" yaml:"present"`
	FailRatePct float64 `json:"fail_rate_pct" yaml:"fail_rate_pct"`
	Display     string  `json:"display,omitempty" yaml:"display,omitempty"`
}

type LimitsView struct {
	Filter      models.LimitsFilter   `json:"filter" yaml:"filter"`
	Scale       models.PercentScale   `json:"scale,omitempty" yaml:"scale,omitempty"`
	Unavailable bool                  `json:"unavailable" yaml:"unavailable"`
	Message     string                `json:"message,omitempty" yaml:"message,omitempty"`
	NoData      bool                  `json:"no_data" yaml:"no_data"`
	Records     []models.LimitsRecord `json:"records" yaml:"records"`
	Series      presentation.Series   `json:"series" yaml:"series"`
}

// View is everything one dashboard render needs. NoData means the selection
// matched no test records.
type View struct {
	Selection    selection.Selection  `json:"selection" yaml:"selection"`
	ProductRates []models.FailureRate `json:"product_rates" yaml:"product_rates"`
	Comparison   []Comparison         `json:"comparison" yaml:"comparison"`
	Product      presentation.Series  `json:"product" yaml:"product"`
	FVTRates     []models.FailureRate `json:"fvt_rates" yaml:"fvt_rates"`
	FVT          presentation.Series  `json:"fvt" yaml:"fvt"`
	TrendRates   []models.FailureRate `json:"trend_rates" yaml:"trend_rates"`
	Trend        presentation.Series  `json:"trend" yaml:"trend"`
	NoData       bool                 `json:"no_data" yaml:"no_data"`
	NoTrendData  bool                 `json:"no_trend_data" yaml:"no_trend_data"`
	Limits       LimitsView           `json:"limits" yaml:"limits"`
}

// Chart returns the series drawn by the named chart.
func (v *View) Chart(name string) (presentation.Series, bool) {
	switch name {
	case ChartProduct:
		return v.Product, true
	case ChartFVT:
		return v.FVT, true
	case ChartTrend:
		return v.Trend, true
	case ChartLimits:
		return v.Limits.Series, true
	}
	return presentation.Series{}, false
}

// Options lists the choices a client can select from.
type Options struct {
	BaseTypes       []string            `json:"base_types" yaml:"base_types"`
	FVTs            map[string][]string `json:"fvts" yaml:"fvts"`
	LimitsBaseTypes []string            `json:"limits_base_types" yaml:"limits_base_types"`
	LimitsFVTs      map[string][]string `json:"limits_fvts" yaml:"limits_fvts"`
	LimitsScale     models.PercentScale `json:"limits_scale,omitempty" yaml:"limits_scale,omitempty"`
	LimitsAvailable bool                `json:"limits_available" yaml:"limits_available"`
}

func NewOptions(data *Data) Options {
	options := Options{
		BaseTypes:       analytics.DistinctBaseTypes(data.Tests),
		FVTs:            make(map[string][]string),
		LimitsBaseTypes: analytics.DistinctLimitsBaseTypes(data.Limits),
		LimitsFVTs:      make(map[string][]string),
		LimitsScale:     data.LimitsScale,
		LimitsAvailable: data.LimitsAvailable(),
	}
	for _, baseType := range options.BaseTypes {
		options.FVTs[baseType] = analytics.DistinctFVTs(data.Tests, baseType)
	}
	for _, baseType := range options.LimitsBaseTypes {
		options.LimitsFVTs[baseType] = analytics.DistinctLimitsFVTs(data.Limits, baseType)
	}
	return options
}
