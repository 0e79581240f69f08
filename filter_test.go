package salesdash

import (
	"net/url"
	"testing"
	"time"

	"github.com/nao1215/salesdash/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderIDs(t *Table) []string {
	ids := make([]string, 0, t.Len())
	for _, o := range t.Orders() {
		ids = append(ids, o.OrderID)
	}
	return ids
}

func TestApply(t *testing.T) {
	t.Parallel()

	table := sampleTable(t)
	date := func(m time.Month, d int) time.Time { return time.Date(2023, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{name: "empty selection", sel: Selection{}, want: []string{"O1", "O2", "O3", "O4"}},
		{name: "inclusive date range", sel: Selection{DateFrom: date(time.January, 20), DateTo: date(time.February, 2)}, want: []string{"O2", "O3"}},
		{name: "open start", sel: Selection{DateTo: date(time.January, 31)}, want: []string{"O1", "O2"}},
		{name: "open end", sel: Selection{DateFrom: date(time.March, 1)}, want: []string{"O4"}},
		{name: "region", sel: Selection{Regions: []string{"West", "South"}}, want: []string{"O1", "O2", "O3"}},
		{name: "state", sel: Selection{States: []string{"Texas"}}, want: []string{"O3"}},
		{name: "county", sel: Selection{Counties: []string{"San Diego"}}, want: []string{"O2"}},
		{name: "city", sel: Selection{Cities: []string{"Brooklyn"}}, want: []string{"O4"}},
		{name: "status", sel: Selection{Statuses: []string{"complete"}}, want: []string{"O1", "O3"}},
		{name: "conjunction", sel: Selection{Regions: []string{"West"}, Statuses: []string{"complete"}}, want: []string{"O1"}},
		{name: "nothing matches", sel: Selection{Regions: []string{"Mars"}}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Apply(table, tt.sel)
			assert.Equal(t, tt.want, orderIDs(got))
			assert.Equal(t, table.Fields().Fields(), got.Fields().Fields())
		})
	}

	assert.Equal(t, 4, table.Len(), "input table must not change")
}

func TestApply_NoPredicateReturnsInput(t *testing.T) {
	t.Parallel()

	table := sampleTable(t)
	assert.Same(t, table, Apply(table, Selection{}))
}

func TestApply_Monotonic(t *testing.T) {
	t.Parallel()

	table, err := LoadDefault(t.Context())
	require.NoError(t, err)

	base := Selection{Regions: []string{"West", "South"}}
	narrower := []Selection{
		{Regions: []string{"West", "South"}, Statuses: []string{"complete"}},
		{Regions: []string{"West", "South"}, States: []string{"Californie", "Texas"}},
		{Regions: []string{"West", "South"}, DateFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Regions: []string{"West"}},
	}

	full := Apply(table, base)
	ids := make(map[string]bool, full.Len())
	for _, id := range orderIDs(full) {
		ids[id] = true
	}
	for _, sel := range narrower {
		sub := Apply(table, sel)
		if sub.Len() > full.Len() {
			t.Errorf("selection %+v kept %d rows, more than %d", sel, sub.Len(), full.Len())
		}
		for _, id := range orderIDs(sub) {
			if !ids[id] {
				t.Errorf("selection %+v kept order %s outside the wider selection", sel, id)
			}
		}
	}
}

func TestApply_AbsentFieldIsSkipped(t *testing.T) {
	t.Parallel()

	orders := []Order{{OrderID: "1", Status: "complete"}, {OrderID: "2", Status: "canceled"}}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldOrderID, model.FieldStatus), orders, nil)

	got := Apply(table, Selection{
		Regions:  []string{"West"},
		DateFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Statuses: []string{"complete"},
	})
	assert.Equal(t, []string{"1"}, orderIDs(got))
}

func TestApply_MissingDateFailsBoundedRange(t *testing.T) {
	t.Parallel()

	orders := []Order{
		{OrderID: "1", OrderDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{OrderID: "2"},
	}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldOrderID, model.FieldOrderDate), orders, nil)

	got := Apply(table, Selection{DateFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, []string{"1"}, orderIDs(got))
}

func TestApply_DateBoundsUseUTCDay(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	orders := []Order{
		// 2023-02-28 20:00 UTC
		{OrderID: "1", OrderDate: time.Date(2023, 3, 1, 5, 0, 0, 0, tokyo)},
		{OrderID: "2", OrderDate: time.Date(2023, 3, 1, 12, 0, 0, 0, tokyo)},
	}
	table := model.NewTable("orders", model.NewFieldSet(model.FieldOrderID, model.FieldOrderDate), orders, nil)

	march := Apply(table, Selection{DateFrom: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, []string{"2"}, orderIDs(march))

	february := Apply(table, Selection{DateTo: time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, []string{"1"}, orderIDs(february))
}

func TestOptions(t *testing.T) {
	t.Parallel()

	table := sampleTable(t)

	t.Run("no region selected offers no states", func(t *testing.T) {
		t.Parallel()

		opts := Options(table, Selection{})
		assert.Equal(t, []string{"West", "South", "Northeast"}, opts.Regions)
		assert.Empty(t, opts.States)
		assert.Empty(t, opts.Cities)
		assert.Equal(t, []string{"Los Angeles", "San Diego", "Travis", "Kings"}, opts.Counties)
		assert.Equal(t, []string{"complete", "canceled", "received"}, opts.Statuses)
		assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), opts.MinDate)
		assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), opts.MaxDate)
	})

	t.Run("states follow the selected regions", func(t *testing.T) {
		t.Parallel()

		opts := Options(table, Selection{Regions: []string{"West", "Northeast"}})
		assert.Equal(t, []string{"Californie", "New York"}, opts.States)
		assert.Empty(t, opts.Cities)
	})

	t.Run("cities follow the selected states", func(t *testing.T) {
		t.Parallel()

		opts := Options(table, Selection{Regions: []string{"West"}, States: []string{"Californie"}})
		assert.Equal(t, []string{"Californie"}, opts.States)
		assert.Equal(t, []string{"Los Angeles", "San Diego"}, opts.Cities)
	})
}

func TestParseSelection(t *testing.T) {
	t.Parallel()

	t.Run("all keys", func(t *testing.T) {
		t.Parallel()

		values := url.Values{
			"from":   {"2023-01-01"},
			"to":     {" 2023-06-30 "},
			"region": {"West", " ", "South"},
			"state":  {"Californie"},
			"county": {"Kings"},
			"city":   {"Brooklyn"},
			"status": {"complete"},
		}
		sel, err := ParseSelection(values)
		require.NoError(t, err)

		assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), sel.DateFrom)
		assert.Equal(t, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), sel.DateTo)
		assert.Equal(t, []string{"West", "South"}, sel.Regions)
		assert.Equal(t, []string{"Californie"}, sel.States)
		assert.False(t, sel.IsZero())

		again, err := ParseSelection(sel.Values())
		require.NoError(t, err)
		assert.Equal(t, sel, again)
	})

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()

		sel, err := ParseSelection(url.Values{})
		require.NoError(t, err)
		assert.True(t, sel.IsZero())
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()

		_, err := ParseSelection(url.Values{"to": {"06/30/2023"}})
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}
