package main

import (
	"net/url"

	"github.com/nao1215/salesdash"
	"github.com/spf13/cobra"
)

// selectionFlags mirrors the dashboard selectors on the command line.
type selectionFlags struct {
	from     string
	to       string
	regions  []string
	states   []string
	counties []string
	cities   []string
	statuses []string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.from, "from", "", "First order day, YYYY-MM-DD")
	flags.StringVar(&f.to, "to", "", "Last order day, YYYY-MM-DD")
	flags.StringSliceVar(&f.regions, "region", nil, "Regions to keep (repeatable)")
	flags.StringSliceVar(&f.states, "state", nil, "States to keep (repeatable)")
	flags.StringSliceVar(&f.counties, "county", nil, "Counties to keep (repeatable)")
	flags.StringSliceVar(&f.cities, "city", nil, "Cities to keep (repeatable)")
	flags.StringSliceVar(&f.statuses, "status", nil, "Order statuses to keep (repeatable)")
}

// selection parses the flags the same way the HTTP API parses its query.
func (f *selectionFlags) selection() (salesdash.Selection, error) {
	values := url.Values{
		"region": f.regions,
		"state":  f.states,
		"county": f.counties,
		"city":   f.cities,
		"status": f.statuses,
	}
	if f.from != "" {
		values.Set("from", f.from)
	}
	if f.to != "" {
		values.Set("to", f.to)
	}
	return salesdash.ParseSelection(values)
}
