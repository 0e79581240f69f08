package model

import "strings"

// stateNames maps US state codes to the display names shown on the dashboard.
// The table is closed: codes outside it have no display name.
var stateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "Californie", "NC": "Caroline du Nord", "SC": "Caroline du Sud",
	"CO": "Colorado", "CT": "Connecticut", "ND": "Dakota du Nord",
	"SD": "Dakota du Sud", "DE": "Delaware", "FL": "Floride",
	"GA": "Georgie", "HI": "Hawaï", "ID": "Idaho", "IL": "Illinois",
	"IN": "Indiana", "IA": "Iowa", "KS": "Kansas", "KY": "Kentucky",
	"LA": "Louisiane", "ME": "Maine", "MD": "Maryland", "MA": "Massachussetts",
	"MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi", "MO": "Missouri",
	"MT": "Montana", "NE": "Nebraska", "NV": "Nevada", "NH": "New Hampshire",
	"NJ": "New Jersey", "NY": "New York", "NM": "Nouveau-Mexique", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvanie", "RI": "Rhode Island",
	"TN": "Tennessee", "TX": "Texas", "UT": "Utah", "VT": "Vermont",
	"VA": "Virginie", "WV": "Virginie ociidentale", "WA": "Washington",
	"WI": "Wisconsin", "WY": "Wyoming",
}

// StateName returns the display name for a two-letter state code.
// The lookup is exact after trimming surrounding spaces.
func StateName(code string) (string, bool) {
	name, ok := stateNames[strings.TrimSpace(code)]
	return name, ok
}

// StateCodes returns the number of known state codes
func StateCodes() int {
	return len(stateNames)
}
