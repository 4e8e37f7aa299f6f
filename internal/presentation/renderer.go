package presentation

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
)

var ErrNoData = errors.New("no data for this selection")

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

var percentTicks = []chart.Tick{
	{Value: 0, Label: "0"},
	{Value: 25, Label: "25"},
	{Value: 50, Label: "50"},
	{Value: 75, Label: "75"},
	{Value: 100, Label: "100"},
}

// Renderer draws series as PNG charts. The Y axis is fixed to [0,100] unless a
// value exceeds it, which only happens for limits summaries stored above 1.0.
type Renderer struct {
	Width  int
	Height int
}

func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Width: width, Height: height}
}

func (r *Renderer) RenderPNG(w io.Writer, s Series) error {
	if s.Empty() {
		return ErrNoData
	}

	var err error
	switch s.Kind {
	case KindTrend:
		err = r.trendChart(s).Render(chart.PNG, w)
	case KindBar:
		err = r.barChart(s).Render(chart.PNG, w)
	default:
		return fmt.Errorf("unsupported series kind %q", s.Kind)
	}
	if err != nil {
		return fmt.Errorf("failed to render %q: %w", s.Title, err)
	}
	return nil
}

func (r *Renderer) yAxis(s Series) chart.YAxis {
	upper := 100.0
	for _, point := range s.Points {
		upper = math.Max(upper, point.Value)
	}
	ticks := percentTicks
	if upper > 100 {
		ticks = nil
	}
	return chart.YAxis{
		Name:  s.YLabel,
		Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(upper)},
		Ticks: ticks,
	}
}

func (r *Renderer) barChart(s Series) chart.BarChart {
	bars := make([]chart.Value, 0, len(s.Points))
	for _, point := range s.Points {
		bars = append(bars, chart.Value{Label: point.Label, Value: point.Value})
	}

	return chart.BarChart{
		Title:      s.Title,
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   60,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis:      chart.Shown(),
		YAxis:      r.yAxis(s),
		Bars:       bars,
	}
}

func (r *Renderer) trendChart(s Series) chart.Chart {
	times := make([]time.Time, 0, len(s.Points))
	values := make([]float64, 0, len(s.Points))
	for _, point := range s.Points {
		times = append(times, point.Time)
		values = append(values, point.Value)
	}

	return chart.Chart{
		Title:      s.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:           s.XLabel,
			ValueFormatter: chart.TimeValueFormatterWithFormat(weekLayout),
			Range:          weekRange(times),
		},
		YAxis: r.yAxis(s),
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    s.Title,
				XValues: times,
				YValues: values,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotColor:    chart.ColorBlue,
					DotWidth:    4,
				},
			},
		},
	}
}

// weekRange centres a lone week on a seven day X axis, since go-chart cannot
// draw a zero-width range. Longer trends use the data bounds.
func weekRange(times []time.Time) chart.Range {
	if len(times) != 1 {
		return nil
	}
	halfWeek := 84 * time.Hour
	return &chart.ContinuousRange{
		Min: chart.TimeToFloat64(times[0].Add(-halfWeek)),
		Max: chart.TimeToFloat64(times[0].Add(halfWeek)),
	}
}
