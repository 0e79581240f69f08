package salesdash

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/golang/geo/s2"
)

// Marker size range and default view
const (
	// MinMarkerSize is the smallest marker size
	MinMarkerSize = 8
	// MaxMarkerSize is the largest marker size
	MaxMarkerSize = 20
	// markerSizeDivisor scales a sales total into marker units
	markerSizeDivisor = 1000
)

// DefaultMapCenter is the geographic center of the contiguous United States.
var DefaultMapCenter = Location{Lat: 37.0902, Lon: -95.7129}

// LocationResolver resolves a state display name to coordinates.
// CachedResolver is the usual implementation.
type LocationResolver interface {
	Resolve(ctx context.Context, name string) (Location, bool)
}

// MapMarker is one state on the sales map.
type MapMarker struct {
	State    string   `json:"state"`
	Location Location `json:"location"`
	Total    float64  `json:"total"`
	Size     float64  `json:"size"`
	Text     string   `json:"text"`
}

// MapBounds is the latitude/longitude box around the markers.
type MapBounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// MapSeries is the data behind the map panel.
type MapSeries struct {
	Markers []MapMarker `json:"markers"`
	// Unresolved lists states left off the map because geocoding gave no location
	Unresolved []string   `json:"unresolved,omitempty"`
	Center     Location   `json:"center"`
	Bounds     *MapBounds `json:"bounds,omitempty"`
}

// MarkerSize maps a sales total to a marker size: total/1000 clamped to [8, 20].
func MarkerSize(total float64) float64 {
	return math.Min(math.Max(total/markerSizeDivisor, MinMarkerSize), MaxMarkerSize)
}

// BuildMapSeries groups sales by state and places each resolvable state on the map.
//
// States the resolver cannot place are listed in Unresolved and never fail the
// call. Markers are ordered by state name. With no marker the center falls
// back to DefaultMapCenter and Bounds is nil.
func BuildMapSeries(ctx context.Context, t *Table, resolver LocationResolver) MapSeries {
	totals := StateTotals(t)
	slices.SortFunc(totals, func(a, b GroupTotal) int {
		return cmp.Compare(a.Key, b.Key)
	})

	series := MapSeries{Center: DefaultMapCenter}
	rect := s2.EmptyRect()
	for _, st := range totals {
		var (
			loc Location
			ok  bool
		)
		if resolver != nil {
			loc, ok = resolver.Resolve(ctx, st.Key)
		}
		if !ok {
			series.Unresolved = append(series.Unresolved, st.Key)
			continue
		}

		series.Markers = append(series.Markers, MapMarker{
			State:    st.Key,
			Location: loc,
			Total:    st.Total,
			Size:     MarkerSize(st.Total),
			Text:     fmt.Sprintf("State: %s\nSales: %s", st.Key, FormatMoney(st.Total)),
		})
		rect = rect.AddPoint(s2.LatLngFromDegrees(loc.Lat, loc.Lon))
	}

	if !rect.IsEmpty() {
		center := rect.Center()
		series.Center = Location{Lat: center.Lat.Degrees(), Lon: center.Lng.Degrees()}
		series.Bounds = &MapBounds{
			South: rect.Lo().Lat.Degrees(),
			West:  rect.Lo().Lng.Degrees(),
			North: rect.Hi().Lat.Degrees(),
			East:  rect.Hi().Lng.Degrees(),
		}
	}
	return series
}
