// Package chart renders dashboard panels as PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/nao1215/salesdash"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default image size in pixels
const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

var (
	// ErrNoData is returned when a computed panel has nothing to plot
	ErrNoData = errors.New("chart: no data to plot")
	// ErrPanelUnavailable is returned for panels the dashboard skipped
	ErrPanelUnavailable = errors.New("chart: panel unavailable")
)

// Option configures Render.
type Option func(*options)

type options struct {
	width  int
	height int
}

// WithSize sets the image size. Non-positive values keep the default.
func WithSize(width, height int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
		if height > 0 {
			o.height = height
		}
	}
}

// Render draws one panel of d as a PNG into w.
func Render(w io.Writer, panel salesdash.Panel, d salesdash.Dashboard, opts ...Option) error {
	o := options{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(&o)
	}

	if !d.Has(panel) {
		return fmt.Errorf("%w: %s", ErrPanelUnavailable, panel)
	}

	switch panel {
	case salesdash.PanelCategory:
		return renderBars(w, o, "Sales by Category", groupValues(d.Categories), true)
	case salesdash.PanelRegion:
		return renderRegions(w, o, d.Regions)
	case salesdash.PanelCustomers:
		return renderBars(w, o, "Top Customers", groupValues(d.TopCustomers), true)
	case salesdash.PanelAge:
		return renderBars(w, o, "Customer Age Distribution", ageValues(d.Ages), false)
	case salesdash.PanelGender:
		return renderPie(w, o, "Sales by Gender", groupValues(d.Genders))
	case salesdash.PanelMonthly:
		return renderMonthly(w, o, d.Monthly)
	case salesdash.PanelMap:
		return renderMap(w, o, d.Map)
	default:
		return fmt.Errorf("chart: unknown panel %q", panel)
	}
}

func groupValues(groups []salesdash.GroupTotal) []chart.Value {
	values := make([]chart.Value, 0, len(groups))
	for _, g := range groups {
		values = append(values, chart.Value{Label: g.Key, Value: g.Total})
	}
	return values
}

func ageValues(bins []salesdash.AgeBin) []chart.Value {
	values := make([]chart.Value, 0, len(bins))
	for _, b := range bins {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%.0f-%.0f", b.Low, b.High),
			Value: float64(b.Count),
		})
	}
	return values
}

func moneyFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return salesdash.FormatMoney(f)
	}
	return ""
}

func renderBars(w io.Writer, o options, title string, values []chart.Value, money bool) error {
	if len(values) == 0 {
		return ErrNoData
	}

	yAxis := chart.YAxis{}
	if money {
		yAxis.ValueFormatter = moneyFormatter
	}
	hi := 0.0
	for _, v := range values {
		hi = math.Max(hi, v.Value)
	}
	if hi <= 0 {
		// a flat series has no range to scale
		yAxis.Range = &chart.ContinuousRange{Min: 0, Max: 1}
	}

	barWidth := (o.width - 120) / (len(values) * 2)
	bc := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      o.width,
		Height:     o.height,
		BarWidth:   max(barWidth, 4),
		YAxis:      yAxis,
		Bars:       values,
	}
	return bc.Render(chart.PNG, w)
}

func renderRegions(w io.Writer, o options, shares []salesdash.ShareTotal) error {
	values := make([]chart.Value, 0, len(shares))
	for _, s := range shares {
		if s.Total <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Key, s.Percent),
			Value: s.Total,
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}
	dc := chart.DonutChart{
		Title:  "Sales by Region",
		Width:  o.width,
		Height: o.height,
		Values: values,
	}
	return dc.Render(chart.PNG, w)
}

func renderPie(w io.Writer, o options, title string, values []chart.Value) error {
	positive := values[:0:0]
	for _, v := range values {
		if v.Value > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return ErrNoData
	}
	pc := chart.PieChart{
		Title:  title,
		Width:  o.width,
		Height: o.height,
		Values: positive,
	}
	return pc.Render(chart.PNG, w)
}

func renderMonthly(w io.Writer, o options, trend []salesdash.MonthTotal) error {
	if len(trend) == 0 {
		return ErrNoData
	}

	xs := make([]time.Time, 0, len(trend)+1)
	ys := make([]float64, 0, len(trend)+1)
	for _, m := range trend {
		xs = append(xs, m.Month)
		ys = append(ys, m.Total)
	}
	if len(xs) == 1 {
		// a single month still needs a non-zero x range
		xs = append(xs, xs[0].AddDate(0, 1, 0))
		ys = append(ys, ys[0])
	}

	yAxis := chart.YAxis{ValueFormatter: moneyFormatter}
	if lo, hi := minMax(ys); lo == hi {
		yAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := chart.Chart{
		Title:      "Monthly Sales Trend",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      o.width,
		Height:     o.height,
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006")},
		YAxis:      yAxis,
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Sales",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}
	return ch.Render(chart.PNG, w)
}

func renderMap(w io.Writer, o options, series *salesdash.MapSeries) error {
	if series == nil || len(series.Markers) == 0 || series.Bounds == nil {
		return ErrNoData
	}

	lons := make([]float64, 0, len(series.Markers))
	lats := make([]float64, 0, len(series.Markers))
	sizes := make([]float64, 0, len(series.Markers))
	for _, m := range series.Markers {
		lons = append(lons, m.Location.Lon)
		lats = append(lats, m.Location.Lat)
		sizes = append(sizes, m.Size)
	}

	const pad = 2.0
	b := series.Bounds
	ch := chart.Chart{
		Title:      "Sales by State",
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      o.width,
		Height:     o.height,
		XAxis: chart.XAxis{
			Name:  "Longitude",
			Range: &chart.ContinuousRange{Min: b.West - pad, Max: b.East + pad},
		},
		YAxis: chart.YAxis{
			Name:  "Latitude",
			Range: &chart.ContinuousRange{Min: b.South - pad, Max: b.North + pad},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "States",
				XValues: lons,
				YValues: lats,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotColor:    drawing.Color{R: 0, G: 116, B: 217, A: 180},
					DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
						return sizes[index] / 2
					},
				},
			},
		},
	}
	return ch.Render(chart.PNG, w)
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
