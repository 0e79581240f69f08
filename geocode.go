package salesdash

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nao1215/salesdash/domain/model"
	"golang.org/x/sync/singleflight"
)

// Location is a latitude/longitude pair in degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder turns a free-form place query into coordinates.
//
// Implementations return an error wrapping ErrNoMatch when the service
// answered but knows no such place. Any other error is treated as transient.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Location, error)
}

// GeocodeResult is a cached answer. Found is false for a definitive no-match.
type GeocodeResult struct {
	Location Location
	Found    bool
}

// GeocodeStore persists resolved answers across restarts.
type GeocodeStore interface {
	// Get returns the stored result and whether one exists.
	Get(ctx context.Context, name string) (GeocodeResult, bool, error)
	// Set stores a result, replacing any previous one.
	Set(ctx context.Context, name string, result GeocodeResult) error
}

// GeocodeObserver receives one outcome per Resolve call.
type GeocodeObserver interface {
	ObserveGeocode(outcome GeocodeOutcome)
}

// GeocodeOutcome classifies a Resolve call.
type GeocodeOutcome string

const (
	// GeocodeHit means the answer came from memory or the store
	GeocodeHit GeocodeOutcome = "hit"
	// GeocodeResolved means the geocoder returned a location
	GeocodeResolved GeocodeOutcome = "resolved"
	// GeocodeNoMatch means the geocoder knows no such place
	GeocodeNoMatch GeocodeOutcome = "no_match"
	// GeocodeError means the lookup failed and nothing was cached
	GeocodeError GeocodeOutcome = "error"
)

const (
	// DefaultGeocodeSuffix is appended to every state name before geocoding
	DefaultGeocodeSuffix = ", United States"
	// defaultResolverCacheSize bounds the in-memory cache. It never drops
	// below the number of known states, so every mapped state stays cached.
	defaultResolverCacheSize = 512
)

// CachedResolver memoizes geocoder answers for the process lifetime.
//
// It is safe for concurrent use. Concurrent lookups of one name share a
// single geocoder call. Locations and definitive no-matches are cached;
// transient failures are not, so a later call retries.
type CachedResolver struct {
	geocoder Geocoder
	cache    *lru.Cache[string, GeocodeResult]
	group    singleflight.Group
	store    GeocodeStore
	observer GeocodeObserver
	logger   *slog.Logger
	suffix   string
}

// ResolverOption configures a CachedResolver.
type ResolverOption func(*CachedResolver)

// WithGeocodeStore adds a persistent second-level cache.
func WithGeocodeStore(store GeocodeStore) ResolverOption {
	return func(r *CachedResolver) {
		r.store = store
	}
}

// WithGeocodeObserver reports lookup outcomes, typically to metrics.
func WithGeocodeObserver(observer GeocodeObserver) ResolverOption {
	return func(r *CachedResolver) {
		r.observer = observer
	}
}

// WithResolverLogger sets the logger for failed lookups.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *CachedResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithQuerySuffix replaces the text appended to each name before geocoding.
func WithQuerySuffix(suffix string) ResolverOption {
	return func(r *CachedResolver) {
		r.suffix = suffix
	}
}

// NewCachedResolver wraps a geocoder with memoization.
func NewCachedResolver(geocoder Geocoder, opts ...ResolverOption) *CachedResolver {
	cache, err := lru.New[string, GeocodeResult](max(defaultResolverCacheSize, model.StateCodes()))
	if err != nil {
		// Only a non-positive size fails
		panic(err)
	}
	r := &CachedResolver{
		geocoder: geocoder,
		cache:    cache,
		logger:   slog.New(slog.DiscardHandler),
		suffix:   DefaultGeocodeSuffix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coordinates of a state display name.
// The boolean is false for unknown places and for failed lookups.
func (r *CachedResolver) Resolve(ctx context.Context, name string) (Location, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, false
	}

	if res, ok := r.cache.Get(name); ok {
		r.observe(GeocodeHit)
		return res.Location, res.Found
	}

	// The shared lookup outlives any single caller; each caller stops
	// waiting when its own context ends. The geocoder bounds the lookup.
	ch := r.group.DoChan(name, func() (any, error) {
		return r.lookup(context.WithoutCancel(ctx), name)
	})
	var out singleflight.Result
	select {
	case <-ctx.Done():
		out.Err = ctx.Err()
	case out = <-ch:
	}
	if out.Err != nil {
		r.observe(GeocodeError)
		r.logger.WarnContext(ctx, "geocoding failed", slog.String("name", name), slog.String("error", out.Err.Error()))
		return Location{}, false
	}
	res, _ := out.Val.(GeocodeResult)
	return res.Location, res.Found
}

// lookup consults the store, then the geocoder, and fills both cache levels.
func (r *CachedResolver) lookup(ctx context.Context, name string) (GeocodeResult, error) {
	if r.store != nil {
		res, ok, err := r.store.Get(ctx, name)
		if err != nil {
			r.logger.WarnContext(ctx, "geocode store read failed", slog.String("name", name), slog.String("error", err.Error()))
		} else if ok {
			r.cache.Add(name, res)
			r.observe(GeocodeHit)
			return res, nil
		}
	}

	if r.geocoder == nil {
		return GeocodeResult{}, errors.New("no geocoder configured")
	}

	loc, err := r.geocoder.Geocode(ctx, name+r.suffix)
	var res GeocodeResult
	switch {
	case err == nil:
		res = GeocodeResult{Location: loc, Found: true}
		r.observe(GeocodeResolved)
	case errors.Is(err, ErrNoMatch):
		r.observe(GeocodeNoMatch)
	default:
		return GeocodeResult{}, err
	}

	r.cache.Add(name, res)
	if r.store != nil {
		if err := r.store.Set(ctx, name, res); err != nil {
			r.logger.WarnContext(ctx, "geocode store write failed", slog.String("name", name), slog.String("error", err.Error()))
		}
	}
	return res, nil
}

func (r *CachedResolver) observe(outcome GeocodeOutcome) {
	if r.observer != nil {
		r.observer.ObserveGeocode(outcome)
	}
}
