package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/salesdash"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		sel      selectionFlags
		panels   []string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard KPIs and panels as tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			selection, err := sel.selection()
			if err != nil {
				return err
			}
			wanted, err := parsePanels(panels)
			if err != nil {
				return err
			}
			if provider != "" {
				a.cfg.Geocoder.Provider = provider
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			table, err := a.loadTable(ctx)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}

			var resolver salesdash.LocationResolver
			if wanted[salesdash.PanelMap] {
				r, closeResolver, err := a.newResolver(ctx, nil)
				if err != nil {
					return err
				}
				defer closeQuietly(ctx, "geocode cache", closeResolver)
				resolver = r
			}

			d := salesdash.BuildDashboard(ctx, table, selection, resolver, a.dashboardOptions()...)
			return writeReport(cmd.OutOrStdout(), d, wanted)
		},
	}
	sel.register(cmd)
	cmd.Flags().StringSliceVar(&panels, "panel", nil, "Panels to print (default all): "+panelNames())
	cmd.Flags().StringVar(&provider, "geocoder", "", "Override geocoder.provider for the map panel")
	return cmd
}

func panelNames() string {
	names := make([]string, len(salesdash.Panels))
	for i, p := range salesdash.Panels {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func parsePanels(names []string) (map[salesdash.Panel]bool, error) {
	wanted := make(map[salesdash.Panel]bool, len(salesdash.Panels))
	if len(names) == 0 {
		for _, p := range salesdash.Panels {
			wanted[p] = true
		}
		return wanted, nil
	}
	for _, name := range names {
		p, ok := salesdash.ParsePanel(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown panel %q, want one of %s", name, panelNames())
		}
		wanted[p] = true
	}
	return wanted, nil
}

func tableLen(t *salesdash.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

// writeReport renders the KPIs and every wanted panel.
func writeReport(w io.Writer, d salesdash.Dashboard, wanted map[salesdash.Panel]bool) error {
	for _, warning := range d.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning.Message); err != nil {
			return err
		}
	}

	if err := renderTable(w, "KPIs", []string{"Total Sales", "Customers", "Orders"}, [][]string{{
		d.KPI.FormattedSales(),
		humanize.Comma(int64(d.KPI.Customers)),
		humanize.Comma(int64(d.KPI.Orders)),
	}}); err != nil {
		return err
	}

	for _, p := range salesdash.Panels {
		if !wanted[p] {
			continue
		}
		if !d.Has(p) {
			if err := writeSkipped(w, d, p); err != nil {
				return err
			}
			continue
		}
		title, header, rows := panelRows(d, p)
		if err := renderTable(w, title, header, rows); err != nil {
			return err
		}
		if p == salesdash.PanelMap && d.Map != nil && len(d.Map.Unresolved) > 0 {
			if _, err := fmt.Fprintf(w, "not on the map: %s\n", strings.Join(d.Map.Unresolved, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSkipped(w io.Writer, d salesdash.Dashboard, p salesdash.Panel) error {
	for _, s := range d.Skipped {
		if s.Panel != p {
			continue
		}
		missing := make([]string, len(s.Missing))
		for i, f := range s.Missing {
			missing[i] = f.String()
		}
		_, err := fmt.Fprintf(w, "\n%s: skipped, missing %s\n", p, strings.Join(missing, ", "))
		return err
	}
	return nil
}

func panelRows(d salesdash.Dashboard, p salesdash.Panel) (title string, header []string, rows [][]string) {
	switch p {
	case salesdash.PanelCategory:
		return "Sales by Category", []string{"Category", "Sales"}, groupRows(d.Categories)
	case salesdash.PanelRegion:
		for _, s := range d.Regions {
			rows = append(rows, []string{s.Key, salesdash.FormatMoney(s.Total), fmt.Sprintf("%.1f%%", s.Percent)})
		}
		return "Sales by Region", []string{"Region", "Sales", "Share"}, rows
	case salesdash.PanelCustomers:
		return "Top Customers", []string{"Customer", "Sales"}, groupRows(d.TopCustomers)
	case salesdash.PanelAge:
		for _, b := range d.Ages {
			rows = append(rows, []string{fmt.Sprintf("%.1f - %.1f", b.Low, b.High), humanize.Comma(int64(b.Count))})
		}
		return "Customer Age Distribution", []string{"Age", "Orders"}, rows
	case salesdash.PanelGender:
		return "Sales by Gender", []string{"Gender", "Sales"}, groupRows(d.Genders)
	case salesdash.PanelMonthly:
		for _, m := range d.Monthly {
			rows = append(rows, []string{m.Label, salesdash.FormatMoney(m.Total)})
		}
		return "Monthly Sales Trend", []string{"Month", "Sales"}, rows
	case salesdash.PanelMap:
		if d.Map != nil {
			for _, m := range d.Map.Markers {
				rows = append(rows, []string{
					m.State,
					fmt.Sprintf("%.4f", m.Location.Lat),
					fmt.Sprintf("%.4f", m.Location.Lon),
					salesdash.FormatMoney(m.Total),
					fmt.Sprintf("%.1f", m.Size),
				})
			}
		}
		return "Sales by State", []string{"State", "Lat", "Lon", "Sales", "Marker"}, rows
	default:
		return string(p), nil, nil
	}
}

func groupRows(groups []salesdash.GroupTotal) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Key, salesdash.FormatMoney(g.Total)})
	}
	return rows
}

// renderTable prints a titled table. An empty table prints "(no data)".
func renderTable(w io.Writer, title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(no data)")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	return nil
}
