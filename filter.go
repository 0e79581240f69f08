package salesdash

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/salesdash/domain/model"
)

// DateLayout is the calendar-day layout used for selection bounds.
const DateLayout = "2006-01-02"

// Selection is the user's current filter choice.
//
// Empty slices and zero dates select everything. Non-empty slices are
// membership tests; predicates combine conjunctively.
type Selection struct {
	// DateFrom is the first included calendar day. Zero means open.
	DateFrom time.Time
	// DateTo is the last included calendar day. Zero means open.
	DateTo time.Time
	// Regions restricts Region
	Regions []string
	// States restricts State Complet
	States []string
	// Counties restricts County
	Counties []string
	// Cities restricts City
	Cities []string
	// Statuses restricts status
	Statuses []string
}

// IsZero reports whether the selection keeps every row.
func (s Selection) IsZero() bool {
	return s.DateFrom.IsZero() && s.DateTo.IsZero() &&
		len(s.Regions) == 0 && len(s.States) == 0 && len(s.Counties) == 0 &&
		len(s.Cities) == 0 && len(s.Statuses) == 0
}

// Values encodes the selection with the same keys ParseSelection reads.
func (s Selection) Values() url.Values {
	v := url.Values{}
	if !s.DateFrom.IsZero() {
		v.Set("from", s.DateFrom.Format(DateLayout))
	}
	if !s.DateTo.IsZero() {
		v.Set("to", s.DateTo.Format(DateLayout))
	}
	for key, values := range map[string][]string{
		"region": s.Regions,
		"state":  s.States,
		"county": s.Counties,
		"city":   s.Cities,
		"status": s.Statuses,
	} {
		for _, value := range values {
			v.Add(key, value)
		}
	}
	return v
}

// ParseSelection reads a selection from query parameters:
// from and to as YYYY-MM-DD, and repeatable region, state, county, city and status.
func ParseSelection(values url.Values) (Selection, error) {
	var (
		sel Selection
		err error
	)
	if sel.DateFrom, err = parseDay(values.Get("from")); err != nil {
		return Selection{}, fmt.Errorf("%w: from: %w", ErrInvalidSelection, err)
	}
	if sel.DateTo, err = parseDay(values.Get("to")); err != nil {
		return Selection{}, fmt.Errorf("%w: to: %w", ErrInvalidSelection, err)
	}
	sel.Regions = nonEmpty(values["region"])
	sel.States = nonEmpty(values["state"])
	sel.Counties = nonEmpty(values["county"])
	sel.Cities = nonEmpty(values["city"])
	sel.Statuses = nonEmpty(values["status"])
	return sel, nil
}

// parseDay parses an optional calendar day.
func parseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, value)
}

// nonEmpty trims values and drops blanks.
func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// day truncates t to its UTC calendar day.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// predicate is one row test of the filter chain.
type predicate func(o Order) bool

// Apply returns the rows of t that satisfy sel. The input table is not modified.
//
// Predicates run in a fixed order: date range, region, state, county, city
// and status. A predicate on a field the table does not carry is skipped.
// An empty result is a valid table with zero rows.
func Apply(t *Table, sel Selection) *Table {
	fields := t.Fields()
	var chain []predicate

	if fields.Has(model.FieldOrderDate) && (!sel.DateFrom.IsZero() || !sel.DateTo.IsZero()) {
		from, to := sel.DateFrom, sel.DateTo
		chain = append(chain, func(o Order) bool {
			if !o.HasOrderDate() {
				return false
			}
			d := day(o.OrderDate)
			if !from.IsZero() && d.Before(day(from)) {
				return false
			}
			if !to.IsZero() && d.After(day(to)) {
				return false
			}
			return true
		})
	}
	chain = appendMembership(chain, fields, model.FieldRegion, sel.Regions)
	chain = appendMembership(chain, fields, model.FieldStateName, sel.States)
	chain = appendMembership(chain, fields, model.FieldCounty, sel.Counties)
	chain = appendMembership(chain, fields, model.FieldCity, sel.Cities)
	chain = appendMembership(chain, fields, model.FieldStatus, sel.Statuses)

	if len(chain) == 0 {
		return t
	}

	kept := make([]Order, 0, t.Len())
rows:
	for _, o := range t.Orders() {
		for _, keep := range chain {
			if !keep(o) {
				continue rows
			}
		}
		kept = append(kept, o)
	}
	return t.Derive(kept)
}

// appendMembership adds an "is one of" predicate when values is not empty.
func appendMembership(chain []predicate, fields FieldSet, f Field, values []string) []predicate {
	if len(values) == 0 || !fields.Has(f) {
		return chain
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return append(chain, func(o Order) bool {
		_, ok := set[o.Text(f)]
		return ok
	})
}

// FilterOptions holds the candidate values offered for each selector.
type FilterOptions struct {
	Regions  []string  `json:"regions"`
	States   []string  `json:"states"`
	Counties []string  `json:"counties"`
	Cities   []string  `json:"cities"`
	Statuses []string  `json:"statuses"`
	MinDate  time.Time `json:"min_date"`
	MaxDate  time.Time `json:"max_date"`
}

// Options lists selector candidates from the full table.
//
// States are offered only for rows whose Region is selected, so no state is
// offered until a region is chosen. Cities are offered only for rows whose
// state is selected. Regions, counties and statuses are global. Values keep
// the order in which they first appear and absent values are excluded.
func Options(t *Table, sel Selection) FilterOptions {
	regions := newMembership(sel.Regions)
	states := newMembership(sel.States)

	var opts FilterOptions
	addRegion, addState, addCounty := distinct(), distinct(), distinct()
	addCity, addStatus := distinct(), distinct()
	for _, o := range t.Orders() {
		opts.Regions = addRegion(opts.Regions, o.Region)
		if regions.has(o.Region) {
			opts.States = addState(opts.States, o.StateName)
		}
		opts.Counties = addCounty(opts.Counties, o.County)
		if states.has(o.StateName) {
			opts.Cities = addCity(opts.Cities, o.City)
		}
		opts.Statuses = addStatus(opts.Statuses, o.Status)

		if o.HasOrderDate() {
			if opts.MinDate.IsZero() || o.OrderDate.Before(opts.MinDate) {
				opts.MinDate = o.OrderDate
			}
			if opts.MaxDate.IsZero() || o.OrderDate.After(opts.MaxDate) {
				opts.MaxDate = o.OrderDate
			}
		}
	}
	return opts
}

// distinct returns an appender that adds non-empty values once.
func distinct() func([]string, string) []string {
	seen := make(map[string]struct{})
	return func(out []string, v string) []string {
		if v == "" {
			return out
		}
		if _, ok := seen[v]; ok {
			return out
		}
		seen[v] = struct{}{}
		return append(out, v)
	}
}

// membership is a set of selected values.
type membership map[string]struct{}

func newMembership(values []string) membership {
	m := make(membership, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func (m membership) has(v string) bool {
	if v == "" {
		return false
	}
	_, ok := m[v]
	return ok
}

