package salesdash

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nao1215/salesdash/domain/model"
	salesdashdriver "github.com/nao1215/salesdash/driver"
)

const (
	// DriverName is the name for the salesdash database/sql driver
	DriverName = "salesdash"
	// SQLTableName is the table holding the orders in SQL views
	SQLTableName = salesdashdriver.TableName
)

// Register registers the salesdash driver with database/sql
func Register() {
	sql.Register(DriverName, salesdashdriver.NewDriver(func(ctx context.Context, dsn string) (*model.Table, error) {
		return defaultLoader.Load(ctx, dsn)
	}))
}

func init() {
	// Auto-register the driver on import
	Register()
}

// Open loads the order file at path into an in-memory SQLite database.
// The orders are queryable as the "orders" table.
//
// Example usage:
//
//	db, err := salesdash.Open(ctx, "orders.xlsx")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.QueryContext(ctx, `
//		SELECT Region, SUM(total) AS sales
//		FROM orders
//		WHERE status = 'complete'
//		GROUP BY Region
//		ORDER BY sales DESC
//	`)
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, err
	}
	return pinDB(ctx, db)
}

// OpenDB exposes an already loaded (for example filtered) table as an in-memory SQLite database.
func OpenDB(ctx context.Context, t *Table) (*sql.DB, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", ErrInvalidData)
	}
	return pinDB(ctx, sql.OpenDB(salesdashdriver.NewTableConnector(t)))
}

// pinDB keeps a single connection, since every connection has its own
// in-memory database, and checks that the orders loaded.
func pinDB(ctx context.Context, db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() // Ignore close error since we're already returning an error
		return nil, err
	}
	return db, nil
}
