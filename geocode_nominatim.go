package salesdash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Nominatim defaults
const (
	// DefaultNominatimEndpoint is the public OpenStreetMap Nominatim instance
	DefaultNominatimEndpoint = "https://nominatim.openstreetmap.org"
	// DefaultGeocodeUserAgent identifies the client to the geocoding service
	DefaultGeocodeUserAgent = "salesdash"
	// DefaultGeocodeTimeout bounds each geocoding request
	DefaultGeocodeTimeout = 10 * time.Second
	// maxGeocodeResponseSize caps the response body that is decoded
	maxGeocodeResponseSize = 1 << 20
)

// NominatimGeocoder queries a Nominatim compatible search endpoint.
type NominatimGeocoder struct {
	endpoint   string
	userAgent  string
	client     *http.Client
	maxRetries uint
}

// NominatimOption configures a NominatimGeocoder.
type NominatimOption func(*NominatimGeocoder)

// WithEndpoint sets the base URL; "/search" is appended.
func WithEndpoint(endpoint string) NominatimOption {
	return func(g *NominatimGeocoder) {
		g.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) NominatimOption {
	return func(g *NominatimGeocoder) {
		g.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) NominatimOption {
	return func(g *NominatimGeocoder) {
		g.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is kept as is.
func WithHTTPClient(client *http.Client) NominatimOption {
	return func(g *NominatimGeocoder) {
		if client != nil {
			g.client = client
		}
	}
}

// WithMaxRetries sets how many extra attempts follow a transient failure.
// Zero disables retries.
func WithMaxRetries(n uint) NominatimOption {
	return func(g *NominatimGeocoder) {
		g.maxRetries = n
	}
}

// NewNominatimGeocoder creates a geocoder for the public Nominatim service unless
// WithEndpoint says otherwise.
func NewNominatimGeocoder(opts ...NominatimOption) *NominatimGeocoder {
	g := &NominatimGeocoder{
		endpoint:  DefaultNominatimEndpoint,
		userAgent: DefaultGeocodeUserAgent,
		client:    &http.Client{Timeout: DefaultGeocodeTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// nominatimPlace is one element of a jsonv2 search response.
// Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the first match for query.
//
// Network errors, 429 and 5xx responses are retried with exponential backoff.
// An empty result list wraps ErrNoMatch and is not retried.
func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (Location, error) {
	reqURL := g.endpoint + "/search?" + url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}.Encode()

	return backoff.Retry(ctx, func() (Location, error) {
		return g.search(ctx, reqURL)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(g.maxRetries+1),
	)
}

// search performs one request. Errors that must not be retried are wrapped in backoff.Permanent.
func (g *NominatimGeocoder) search(ctx context.Context, reqURL string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Location{}, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Location{}, backoff.Permanent(fmt.Errorf("geocode request: %w", err))
		}
		return Location{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return Location{}, fmt.Errorf("geocode request: unexpected status %s", resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Location{}, backoff.Permanent(fmt.Errorf("geocode request: unexpected status %s", resp.Status))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxGeocodeResponseSize)).Decode(&places); err != nil {
		return Location{}, backoff.Permanent(fmt.Errorf("decode geocode response: %w", err))
	}
	if len(places) == 0 {
		return Location{}, backoff.Permanent(fmt.Errorf("%w: %s", ErrNoMatch, req.URL.Query().Get("q")))
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Location{}, backoff.Permanent(fmt.Errorf("decode latitude %q: %w", places[0].Lat, err))
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Location{}, backoff.Permanent(fmt.Errorf("decode longitude %q: %w", places[0].Lon, err))
	}
	return Location{Lat: lat, Lon: lon}, nil
}
