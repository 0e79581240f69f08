package salesdash

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/salesdash/domain/model"
)

// Dashboard defaults
const (
	// DefaultTopCustomers is the number of customers in the top customers panel
	DefaultTopCustomers = 10
	// DefaultAgeBins is the number of bins in the age histogram
	DefaultAgeBins = 20
	// MonthLabelLayout renders month buckets such as "January 2023"
	MonthLabelLayout = "January 2006"
)

// KPI holds the three headline figures.
type KPI struct {
	// TotalSales is the sum of total over rows that carry one
	TotalSales float64 `json:"total_sales"`
	// Customers is the number of distinct non-empty cust_id values
	Customers int `json:"customers"`
	// Orders is the number of distinct non-empty order_id values
	Orders int `json:"orders"`
}

// FormattedSales renders TotalSales as "$1,234.56".
func (k KPI) FormattedSales() string {
	return FormatMoney(k.TotalSales)
}

// FormatMoney renders an amount with thousands separators and two decimals.
func FormatMoney(v float64) string {
	if v < 0 {
		return "$-" + humanize.FormatFloat("#,###.##", -v)
	}
	return "$" + humanize.FormatFloat("#,###.##", v)
}

// GroupTotal is the summed total of one group.
type GroupTotal struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// ShareTotal is a group total with its share of the grand total in percent.
type ShareTotal struct {
	Key     string  `json:"key"`
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
}

// AgeBin counts the rows whose age falls in [Low, High). The last bin also includes High.
type AgeBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// MonthTotal is the summed total of one calendar month.
type MonthTotal struct {
	Month time.Time `json:"month"`
	Label string    `json:"label"`
	Total float64   `json:"total"`
}

// Summarize computes the KPIs. An empty table yields zeros.
func Summarize(t *Table) KPI {
	var (
		kpi       KPI
		customers = make(map[string]struct{})
		orders    = make(map[string]struct{})
	)
	for _, o := range t.Orders() {
		if o.HasTotal {
			kpi.TotalSales += float64(o.Total)
		}
		if o.CustomerID != "" {
			customers[o.CustomerID] = struct{}{}
		}
		if o.OrderID != "" {
			orders[o.OrderID] = struct{}{}
		}
	}
	kpi.Customers = len(customers)
	kpi.Orders = len(orders)
	return kpi
}

// groupSum sums totals per non-empty key.
//
// Groups come back ordered by total descending. Equal totals keep ascending
// key order, so ties are broken the same way on every call.
func groupSum(t *Table, f Field) []GroupTotal {
	sums := make(map[string]float64)
	for _, o := range t.Orders() {
		key := o.Text(f)
		if key == "" {
			continue
		}
		if o.HasTotal {
			sums[key] += float64(o.Total)
		} else if _, ok := sums[key]; !ok {
			sums[key] = 0
		}
	}

	groups := make([]GroupTotal, 0, len(sums))
	for key, total := range sums {
		groups = append(groups, GroupTotal{Key: key, Total: total})
	}
	slices.SortFunc(groups, func(a, b GroupTotal) int {
		return cmp.Compare(a.Key, b.Key)
	})
	slices.SortStableFunc(groups, func(a, b GroupTotal) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return groups
}

// CategoryTotals sums total per category, largest first.
func CategoryTotals(t *Table) []GroupTotal {
	return groupSum(t, model.FieldCategory)
}

// GenderTotals sums total per gender, largest first.
func GenderTotals(t *Table) []GroupTotal {
	return groupSum(t, model.FieldGender)
}

// StateTotals sums total per state display name, largest first.
func StateTotals(t *Table) []GroupTotal {
	return groupSum(t, model.FieldStateName)
}

// RegionShare sums total per region and reports each region's share.
// Percentages are zero when the grand total is zero.
func RegionShare(t *Table) []ShareTotal {
	groups := groupSum(t, model.FieldRegion)

	var grand float64
	for _, g := range groups {
		grand += g.Total
	}

	shares := make([]ShareTotal, 0, len(groups))
	for _, g := range groups {
		s := ShareTotal{Key: g.Key, Total: g.Total}
		if grand != 0 {
			s.Percent = g.Total / grand * 100
		}
		shares = append(shares, s)
	}
	return shares
}

// TopCustomers returns the n customers with the largest summed total.
// Among equal totals the alphabetically first name wins.
func TopCustomers(t *Table, n int) []GroupTotal {
	if n <= 0 {
		return nil
	}
	groups := groupSum(t, model.FieldFullName)
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// AgeHistogram counts rows with a valid age in equal-width bins spanning the
// observed range. A table without valid ages yields nil.
func AgeHistogram(t *Table, bins int) []AgeBin {
	if bins <= 0 {
		bins = DefaultAgeBins
	}

	var (
		ages   []float64
		lo, hi = math.Inf(1), math.Inf(-1)
	)
	for _, o := range t.Orders() {
		if !o.HasAge {
			continue
		}
		age := float64(o.Age)
		ages = append(ages, age)
		lo = math.Min(lo, age)
		hi = math.Max(hi, age)
	}
	if len(ages) == 0 {
		return nil
	}

	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1 / float64(bins)
	}

	hist := make([]AgeBin, bins)
	for i := range hist {
		hist[i].Low = lo + float64(i)*width
		hist[i].High = lo + float64(i+1)*width
	}
	for _, age := range ages {
		i := int((age - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		hist[i].Count++
	}
	return hist
}

// MonthlyTrend sums total per UTC calendar month in chronological order.
// Rows without an order date are ignored.
func MonthlyTrend(t *Table) []MonthTotal {
	sums := make(map[time.Time]float64)
	for _, o := range t.Orders() {
		if !o.HasOrderDate() {
			continue
		}
		y, m, _ := o.OrderDate.UTC().Date()
		month := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		if o.HasTotal {
			sums[month] += float64(o.Total)
		} else if _, ok := sums[month]; !ok {
			sums[month] = 0
		}
	}

	trend := make([]MonthTotal, 0, len(sums))
	for month, total := range sums {
		trend = append(trend, MonthTotal{
			Month: month,
			Label: month.Format(MonthLabelLayout),
			Total: total,
		})
	}
	slices.SortFunc(trend, func(a, b MonthTotal) int {
		return a.Month.Compare(b.Month)
	})
	return trend
}
