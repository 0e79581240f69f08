// Package salesdash is the core of an interactive sales dashboard over a
// table of retail orders.
//
// The package loads order files, applies the user's filter selection, and
// computes the headline figures and chart series a dashboard renders:
//
//   - Load, LoadReader and LoadDefault read CSV, TSV, LTSV, Parquet and Excel
//     (XLSX) files, optionally compressed with gzip, bzip2, xz or zstd. State
//     codes are mapped to display names and the table is projected onto a
//     fixed column allowlist.
//   - Apply filters a table by date range, region, state, county, city and
//     status. Options lists the candidate values of each selector.
//   - Summarize, CategoryTotals, RegionShare, TopCustomers, AgeHistogram,
//     GenderTotals and MonthlyTrend compute the panels. BuildDashboard runs
//     them all and skips panels whose columns are absent.
//   - BuildMapSeries places per-state sales on a map. Locations come from a
//     LocationResolver; CachedResolver memoizes a Geocoder such as the
//     NominatimGeocoder or the offline StaticGeocoder.
//   - Export and ExportFile write the filtered table back out in any of the
//     supported formats.
//
// # Basic Usage
//
//	table, err := salesdash.Load(ctx, "orders.csv.gz")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range table.Warnings() {
//	    log.Println(w)
//	}
//
//	sel := salesdash.Selection{Regions: []string{"West"}}
//	resolver := salesdash.NewCachedResolver(salesdash.NewStaticGeocoder())
//	dashboard := salesdash.BuildDashboard(ctx, table, sel, resolver)
//	fmt.Println(dashboard.KPI.FormattedSales())
//
// # SQL Access
//
// The package registers a database/sql driver named "salesdash". Opening a
// DSN that is a file path loads the file and exposes it as the "orders"
// table of an in-memory SQLite database:
//
//	db, err := salesdash.Open(ctx, "orders.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.QueryContext(ctx, `SELECT category, SUM(total) FROM orders GROUP BY category`)
//
// OpenDB does the same for a table that is already in memory, such as a
// filtered view.
package salesdash
