package salesdash

import (
	"context"

	"github.com/nao1215/salesdash/domain/model"
)

// Panel names one chart of the dashboard.
type Panel string

// Dashboard panels
const (
	PanelCategory  Panel = "category"
	PanelRegion    Panel = "region"
	PanelCustomers Panel = "customers"
	PanelAge       Panel = "age"
	PanelGender    Panel = "gender"
	PanelMonthly   Panel = "monthly"
	PanelMap       Panel = "map"
)

// Panels lists every panel in display order.
var Panels = []Panel{
	PanelCategory, PanelRegion, PanelCustomers, PanelAge, PanelGender, PanelMonthly, PanelMap,
}

// ParsePanel returns the panel with the given name.
func ParsePanel(name string) (Panel, bool) {
	for _, p := range Panels {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// RequiredFields returns the fields a panel cannot be computed without.
func (p Panel) RequiredFields() []Field {
	switch p {
	case PanelCategory:
		return []Field{model.FieldCategory, model.FieldTotal}
	case PanelRegion:
		return []Field{model.FieldRegion, model.FieldTotal}
	case PanelCustomers:
		return []Field{model.FieldFullName, model.FieldTotal}
	case PanelAge:
		return []Field{model.FieldAge}
	case PanelGender:
		return []Field{model.FieldGender, model.FieldTotal}
	case PanelMonthly:
		return []Field{model.FieldOrderDate, model.FieldTotal}
	case PanelMap:
		return []Field{model.FieldStateName, model.FieldTotal}
	default:
		return nil
	}
}

// SkippedPanel records a panel left out because its fields are absent.
type SkippedPanel struct {
	Panel   Panel   `json:"panel"`
	Missing []Field `json:"missing"`
}

// Dashboard is everything the presentation layer renders for one selection.
type Dashboard struct {
	Rows         int            `json:"rows"`
	KPI          KPI            `json:"kpi"`
	Categories   []GroupTotal   `json:"categories,omitempty"`
	Regions      []ShareTotal   `json:"regions,omitempty"`
	TopCustomers []GroupTotal   `json:"top_customers,omitempty"`
	Ages         []AgeBin       `json:"ages,omitempty"`
	Genders      []GroupTotal   `json:"genders,omitempty"`
	Monthly      []MonthTotal   `json:"monthly,omitempty"`
	Map          *MapSeries     `json:"map,omitempty"`
	Skipped      []SkippedPanel `json:"skipped,omitempty"`
	Warnings     []Warning      `json:"warnings,omitempty"`
}

// Has reports whether the panel was computed.
func (d Dashboard) Has(p Panel) bool {
	for _, s := range d.Skipped {
		if s.Panel == p {
			return false
		}
	}
	return true
}

// dashboardConfig holds BuildDashboard settings.
type dashboardConfig struct {
	topCustomers int
	ageBins      int
}

// DashboardOption configures BuildDashboard.
type DashboardOption func(*dashboardConfig)

// WithTopCustomers sets how many customers the top customers panel shows.
func WithTopCustomers(n int) DashboardOption {
	return func(c *dashboardConfig) {
		if n > 0 {
			c.topCustomers = n
		}
	}
}

// WithAgeBins sets the number of age histogram bins.
func WithAgeBins(n int) DashboardOption {
	return func(c *dashboardConfig) {
		if n > 0 {
			c.ageBins = n
		}
	}
}

// BuildDashboard filters t by sel and computes the KPIs and every panel whose
// fields are available. Panels that cannot be computed are listed in Skipped.
// resolver may be nil, in which case the map has no markers.
func BuildDashboard(ctx context.Context, t *Table, sel Selection, resolver LocationResolver, opts ...DashboardOption) Dashboard {
	cfg := dashboardConfig{topCustomers: DefaultTopCustomers, ageBins: DefaultAgeBins}
	for _, opt := range opts {
		opt(&cfg)
	}

	view := Apply(t, sel)
	d := Dashboard{
		Rows:     view.Len(),
		KPI:      Summarize(view),
		Warnings: t.Warnings(),
	}

	fields := view.Fields()
	for _, p := range Panels {
		if missing := fields.Missing(p.RequiredFields()...); len(missing) > 0 {
			d.Skipped = append(d.Skipped, SkippedPanel{Panel: p, Missing: missing})
			continue
		}
		switch p {
		case PanelCategory:
			d.Categories = CategoryTotals(view)
		case PanelRegion:
			d.Regions = RegionShare(view)
		case PanelCustomers:
			d.TopCustomers = TopCustomers(view, cfg.topCustomers)
		case PanelAge:
			d.Ages = AgeHistogram(view, cfg.ageBins)
		case PanelGender:
			d.Genders = GenderTotals(view)
		case PanelMonthly:
			d.Monthly = MonthlyTrend(view)
		case PanelMap:
			series := BuildMapSeries(ctx, view, resolver)
			d.Map = &series
		}
	}
	return d
}
