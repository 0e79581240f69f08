package salesdash

import (
	"fmt"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/salesdash/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("sample table", func(t *testing.T) {
		t.Parallel()

		kpi := Summarize(sampleTable(t))
		assert.InDelta(t, 500.5, kpi.TotalSales, 1e-9)
		assert.Equal(t, 3, kpi.Customers)
		assert.Equal(t, 4, kpi.Orders)
		assert.Equal(t, "$500.50", kpi.FormattedSales())
	})

	t.Run("sum matches the loaded totals", func(t *testing.T) {
		t.Parallel()

		table, err := LoadDefault(t.Context())
		require.NoError(t, err)

		var want float64
		for _, o := range table.Orders() {
			if o.HasTotal {
				want += float64(o.Total)
			}
		}
		assert.InDelta(t, want, Summarize(table).TotalSales, 1e-6)
	})

	t.Run("empty table", func(t *testing.T) {
		t.Parallel()

		empty := model.NewTable("orders", model.NewFieldSet(model.ProjectedFields...), nil, nil)
		assert.Equal(t, KPI{}, Summarize(empty))
		assert.Empty(t, CategoryTotals(empty))
		assert.Empty(t, RegionShare(empty))
		assert.Empty(t, TopCustomers(empty, DefaultTopCustomers))
		assert.Nil(t, AgeHistogram(empty, DefaultAgeBins))
		assert.Empty(t, GenderTotals(empty))
		assert.Empty(t, MonthlyTrend(empty))
	})

	t.Run("blank identifiers are not counted", func(t *testing.T) {
		t.Parallel()

		orders := []Order{{CustomerID: "C1", OrderID: "1"}, {CustomerID: "", OrderID: ""}, {CustomerID: "C1", OrderID: "1"}}
		table := model.NewTable("orders", model.NewFieldSet(model.FieldCustomerID, model.FieldOrderID), orders, nil)
		kpi := Summarize(table)
		assert.Equal(t, 1, kpi.Customers)
		assert.Equal(t, 1, kpi.Orders)
	})
}

func TestCategoryTotals(t *testing.T) {
	t.Parallel()

	orders := []Order{
		{Category: "A", Total: 100, HasTotal: true},
		{Category: "B", Total: 30, HasTotal: true},
		{Category: "A", Total: 50, HasTotal: true},
		{Category: "", Total: 999, HasTotal: true},
		{Category: "C"},
	}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldCategory, model.FieldTotal), orders, nil)

	got := CategoryTotals(table)
	assert.Equal(t, []GroupTotal{{Key: "A", Total: 150}, {Key: "B", Total: 30}, {Key: "C", Total: 0}}, got)

	// Repeated calls give the same answer
	assert.Equal(t, got, CategoryTotals(table))
}

func TestGroupSum_TiesBreakByKey(t *testing.T) {
	t.Parallel()

	orders := []Order{
		{Gender: "M", Total: 10, HasTotal: true},
		{Gender: "F", Total: 10, HasTotal: true},
		{Gender: "X", Total: 20, HasTotal: true},
	}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldGender, model.FieldTotal), orders, nil)
	assert.Equal(t, []GroupTotal{{Key: "X", Total: 20}, {Key: "F", Total: 10}, {Key: "M", Total: 10}}, GenderTotals(table))
}

func TestRegionShare(t *testing.T) {
	t.Parallel()

	shares := RegionShare(sampleTable(t))
	require.Len(t, shares, 3)

	assert.Equal(t, "South", shares[0].Key)
	assert.Equal(t, "West", shares[1].Key)
	assert.Equal(t, "Northeast", shares[2].Key)

	var sum float64
	for _, s := range shares {
		sum += s.Percent
	}
	assert.InDelta(t, 100, sum, 1e-9)
	assert.InDelta(t, 300/500.5*100, shares[0].Percent, 1e-9)
	assert.Zero(t, shares[2].Percent)
}

func TestTopCustomers(t *testing.T) {
	t.Parallel()

	orders := make([]Order, 0, 15)
	for i := 1; i <= 15; i++ {
		orders = append(orders, Order{
			FullName: fmt.Sprintf("Customer %02d", i),
			Total:    float32(i * 100),
			HasTotal: true,
		})
	}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldFullName, model.FieldTotal), orders, nil)

	top := TopCustomers(table, DefaultTopCustomers)
	require.Len(t, top, 10)
	for i, g := range top {
		want := fmt.Sprintf("Customer %02d", 15-i)
		if g.Key != want {
			t.Errorf("top[%d] = %s, want %s", i, g.Key, want)
		}
	}
	assert.Equal(t, float64(1500), top[0].Total)
	assert.Equal(t, float64(600), top[9].Total)

	assert.Len(t, TopCustomers(table, 20), 15)
	assert.Nil(t, TopCustomers(table, 0))
}

func TestAgeHistogram(t *testing.T) {
	t.Parallel()

	t.Run("range split in equal bins", func(t *testing.T) {
		t.Parallel()

		orders := []Order{
			{Age: 20, HasAge: true},
			{Age: 25, HasAge: true},
			{Age: 30, HasAge: true},
			{Age: 40, HasAge: true},
			{},
		}
		table := model.NewTable("orders", model.NewFieldSet(model.FieldAge), orders, nil)

		hist := AgeHistogram(table, 4)
		require.Len(t, hist, 4)
		assert.Equal(t, []AgeBin{
			{Low: 20, High: 25, Count: 1},
			{Low: 25, High: 30, Count: 1},
			{Low: 30, High: 35, Count: 1},
			{Low: 35, High: 40, Count: 1},
		}, hist)
	})

	t.Run("single age", func(t *testing.T) {
		t.Parallel()

		orders := []Order{{Age: 33, HasAge: true}, {Age: 33, HasAge: true}}
		table := model.NewTable("orders", model.NewFieldSet(model.FieldAge), orders, nil)

		hist := AgeHistogram(table, DefaultAgeBins)
		require.Len(t, hist, DefaultAgeBins)
		assert.Equal(t, 2, hist[0].Count)
		assert.Equal(t, float64(33), hist[0].Low)
	})

	t.Run("counts every valid age", func(t *testing.T) {
		t.Parallel()

		table, err := LoadDefault(t.Context())
		require.NoError(t, err)

		total := 0
		for _, b := range AgeHistogram(table, DefaultAgeBins) {
			total += b.Count
			if b.High <= b.Low || math.IsNaN(b.Low) {
				t.Errorf("bad bin %+v", b)
			}
		}
		assert.Equal(t, table.Len(), total)
	})
}

func TestMonthlyTrend(t *testing.T) {
	t.Parallel()

	trend := MonthlyTrend(sampleTable(t))
	require.Len(t, trend, 3)

	assert.Equal(t, "January 2023", trend[0].Label)
	assert.InDelta(t, 200.5, trend[0].Total, 1e-9)
	assert.Equal(t, "February 2023", trend[1].Label)
	assert.Equal(t, "March 2023", trend[2].Label)
	assert.Zero(t, trend[2].Total)
	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), trend[2].Month)
}

func TestMonthlyTrend_BucketsByUTCMonth(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	orders := []Order{
		{OrderDate: time.Date(2023, 3, 1, 5, 0, 0, 0, tokyo), Total: 10, HasTotal: true},
		{OrderDate: time.Date(2023, 3, 1, 12, 0, 0, 0, tokyo), Total: 5, HasTotal: true},
	}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldOrderDate, model.FieldTotal), orders, nil)

	assert.Equal(t, []MonthTotal{
		{Month: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), Label: "February 2023", Total: 10},
		{Month: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), Label: "March 2023", Total: 5},
	}, MonthlyTrend(table))
}

func TestBuildDashboard_Idempotent(t *testing.T) {
	t.Parallel()

	orders := slices.Clone(sampleTable(t).Orders())
	// Books and Garden tie at 80, as do genders M and X and customers Ben and Dee.
	orders = append(orders, Order{
		OrderDate: time.Date(2023, time.February, 10, 0, 0, 0, 0, time.UTC), Region: "Northeast", StateName: "New York",
		County: "Kings", City: "Brooklyn", Status: "complete",
		Total: 80, HasTotal: true, CustomerID: "C4", OrderID: "O5",
		FullName: "Dee Lane", Age: 29, HasAge: true, Gender: "X", Category: "Garden",
	}, Order{
		OrderDate: time.Date(2023, time.February, 11, 0, 0, 0, 0, time.UTC), Region: "South", StateName: "Texas",
		County: "Travis", City: "Austin", Status: "complete",
		Total: 0.5, HasTotal: true, CustomerID: "C5", OrderID: "O6",
		FullName: "Eve Moss", Age: 62, HasAge: true, Gender: "F", Category: "Toys",
	})
	table := model.NewTable("orders", model.NewFieldSet(model.ProjectedFields...), orders, nil)
	before := slices.Clone(table.Orders())

	sel := Selection{Regions: []string{"West", "South", "Northeast"}}
	resolver := NewCachedResolver(NewStaticGeocoder())

	first := BuildDashboard(t.Context(), table, sel, resolver)
	second := BuildDashboard(t.Context(), table, sel, resolver)

	assert.Equal(t, first, second)
	assert.Equal(t, before, table.Orders())

	assert.Equal(t, []GroupTotal{
		{Key: "Appliances", Total: 420.5}, {Key: "Books", Total: 80}, {Key: "Garden", Total: 80}, {Key: "Toys", Total: 0.5},
	}, first.Categories)
	assert.Equal(t, []GroupTotal{{Key: "F", Total: 421}, {Key: "M", Total: 80}, {Key: "X", Total: 80}}, first.Genders)
	require.NotNil(t, first.Map)
	require.Len(t, first.Map.Markers, 3)
	assert.Equal(t, "Texas", first.Map.Markers[2].State)
	assert.InDelta(t, 300.5, first.Map.Markers[2].Total, 1e-9)
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "$0.00"},
		{in: 12.5, want: "$12.50"},
		{in: 1234567.891, want: "$1,234,567.89"},
		{in: -1500, want: "$-1,500.00"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.in); got != tt.want {
			t.Errorf("FormatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
