package salesdash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const createGeocodeTable = `CREATE TABLE IF NOT EXISTS geocodes (
	name       TEXT PRIMARY KEY,
	found      INTEGER NOT NULL,
	lat        REAL,
	lon        REAL,
	updated_at TEXT NOT NULL
)`

// SQLiteGeocodeStore keeps geocoding answers in a SQLite file.
type SQLiteGeocodeStore struct {
	db *sql.DB
}

var _ GeocodeStore = (*SQLiteGeocodeStore)(nil)

// NewSQLiteGeocodeStore opens (and creates if needed) a store at path.
// ":memory:" gives a store that lives as long as the process.
func NewSQLiteGeocodeStore(ctx context.Context, path string) (*SQLiteGeocodeStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("geocode store path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geocode store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createGeocodeTable); err != nil {
		return nil, errors.Join(fmt.Errorf("create geocode table: %w", err), db.Close())
	}
	return &SQLiteGeocodeStore{db: db}, nil
}

// Get implements GeocodeStore.
func (s *SQLiteGeocodeStore) Get(ctx context.Context, name string) (GeocodeResult, bool, error) {
	var (
		found    bool
		lat, lon sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT found, lat, lon FROM geocodes WHERE name = ?`, strings.TrimSpace(name),
	).Scan(&found, &lat, &lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GeocodeResult{}, false, nil
		}
		return GeocodeResult{}, false, fmt.Errorf("query geocode %q: %w", name, err)
	}

	res := GeocodeResult{Found: found}
	if found {
		res.Location = Location{Lat: lat.Float64, Lon: lon.Float64}
	}
	return res, true, nil
}

// Set implements GeocodeStore.
func (s *SQLiteGeocodeStore) Set(ctx context.Context, name string, result GeocodeResult) error {
	var lat, lon sql.NullFloat64
	if result.Found {
		lat = sql.NullFloat64{Float64: result.Location.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: result.Location.Lon, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geocodes (name, found, lat, lon, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			found = excluded.found, lat = excluded.lat, lon = excluded.lon, updated_at = excluded.updated_at`,
		strings.TrimSpace(name), result.Found, lat, lon, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert geocode %q: %w", name, err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteGeocodeStore) Close() error {
	return s.db.Close()
}
