package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/analytics"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/models"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/presentation"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/selection"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type TestRecordSource interface {
	TestRecords(ctx context.Context) ([]models.TestRecord, error)
}

type LimitsRecordSource interface {
	LimitsRecords(ctx context.Context) (*models.LimitsDataset, error)
}

// Data is one loaded and derived snapshot of both sources. LimitsError is set
// when the limits summary could not be used; the failure-rate views still work.
type Data struct {
	Tests       []models.TestRecord
	Limits      []models.LimitsRecord
	LimitsScale models.PercentScale
	LimitsError string
}

func (d *Data) LimitsAvailable() bool {
	return d.LimitsError == ""
}

type Service struct {
	tests   TestRecordSource
	limits  LimitsRecordSource
	metrics *Metrics
}

// NewService wires the pipeline to its sources. limits may be nil when no
// limits summary is configured.
func NewService(tests TestRecordSource, limits LimitsRecordSource, metrics *Metrics) *Service {
	return &Service{tests: tests, limits: limits, metrics: metrics}
}

// Load reads both sources and derives the computed test fields. A test-log
// failure is returned as an error; a missing or malformed limits summary only
// marks the limits section unavailable.
func (s *Service) Load(ctx context.Context) (*Data, error) {
	raw, err := s.tests.TestRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load test records: %w", err)
	}
	data := &Data{Tests: analytics.Derive(raw)}

	if s.limits == nil {
		data.LimitsError = "no limits summary configured"
		return data, nil
	}
	dataset, err := s.limits.LimitsRecords(ctx)
	if err != nil {
		var schemaErr *models.SchemaError
		if !errors.As(err, &schemaErr) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load limits records: %w", err)
		}
		log.WithError(err).Warn("Limits summary unusable, limits section disabled")
		data.LimitsError = err.Error()
		return data, nil
	}
	data.Limits = dataset.Records
	data.LimitsScale = dataset.Scale
	return data, nil
}

// View loads the sources and builds the dashboard for a previous selection.
// The returned state is the selection after stale choices were reset.
func (s *Service) View(ctx context.Context, previous selection.Selection) (*View, *selection.State, error) {
	data, err := s.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	state := selection.Restore(data.Tests, data.Limits, previous)
	view, err := s.Build(ctx, data, state.Snapshot())
	if err != nil {
		return nil, nil, err
	}
	return view, state, nil
}

// Build runs the pipeline and records how long it took.
func (s *Service) Build(ctx context.Context, data *Data, sel selection.Selection) (*View, error) {
	startTime := time.Now()
	view, err := Build(ctx, data, sel)
	s.metrics.observe(time.Since(startTime), err)
	return view, err
}

// Build computes every dashboard section for one selection. It does not
// modify data, so concurrent calls over the same snapshot are safe.
func Build(ctx context.Context, data *Data, sel selection.Selection) (*View, error) {
	subset := sel.Apply(data.Tests)
	view := &View{
		Selection: sel,
		NoData:    len(subset) == 0,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rates, err := analytics.FailureRateBy(data.Tests, models.GroupByBaseType)
		if err != nil {
			return err
		}
		view.ProductRates = rates
		view.Comparison = compare(rates, comparedBaseTypes(rates)...)
		view.Product = presentation.ProductSeries(rates)
		return nil
	})
	g.Go(func() error {
		rates, err := analytics.FailureRateBy(subset, models.GroupByFVT)
		if err != nil {
			return err
		}
		view.FVTRates = rates
		view.FVT = presentation.FVTSeries(rates)
		return nil
	})
	g.Go(func() error {
		rates, err := analytics.FailureRateBy(subset, models.GroupByWeek)
		if err != nil {
			return err
		}
		view.TrendRates = rates
		view.Trend = presentation.TrendSeries(rates)
		return nil
	})
	g.Go(func() error {
		view.Limits = buildLimits(data, sel)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	view.NoTrendData = len(view.TrendRates) == 0
	return view, nil
}

// comparedBaseTypes lists dryers and washers first, present or not, followed
// by any other product type found in the data.
func comparedBaseTypes(rates []models.FailureRate) []string {
	baseTypes := []string{models.BaseTypeDryer, models.BaseTypeWasher}
	for _, rate := range rates {
		if !slices.Contains(baseTypes, rate.Key) {
			baseTypes = append(baseTypes, rate.Key)
		}
	}
	return baseTypes
}

func compare(rates []models.FailureRate, baseTypes ...string) []Comparison {
	comparison := make([]Comparison, 0, len(baseTypes))
	for _, baseType := range baseTypes {
		c := Comparison{BaseType: baseType}
		if rate, ok := analytics.RateFor(rates, baseType); ok {
			c.Present = true
			c.FailRatePct = rate
			c.Display = presentation.FormatPct(rate, 2)
		}
		comparison = append(comparison, c)
	}
	return comparison
}

func buildLimits(data *Data, sel selection.Selection) LimitsView {
	filter := sel.LimitsFilter()
	if !data.LimitsAvailable() {
		return LimitsView{Filter: filter, Unavailable: true, Message: data.LimitsError}
	}
	records := analytics.LimitsRateBy(data.Limits, filter)
	return LimitsView{
		Filter:  filter,
		Scale:   data.LimitsScale,
		NoData:  len(records) == 0,
		Records: records,
		Series:  presentation.LimitsSeries(records),
	}
}
