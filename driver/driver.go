// Package driver provides a database/sql driver that exposes normalized orders
// as a single SQL table.
//
// Each connection owns an in-memory SQLite database. On connect the orders
// are loaded (from the file named by the DSN, or from a table handed to
// NewTableConnector) and inserted into the table named by TableName, with one
// typed column per available field.
//
// Usage:
//
//	db, err := sql.Open("salesdash", "orders.csv.gz")
//	rows, err := db.QueryContext(ctx, `SELECT category, SUM(total) FROM orders GROUP BY category`)
package driver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/nao1215/salesdash/domain/model"
	"modernc.org/sqlite"
)

// TableName is the SQL table holding the orders.
const TableName = "orders"

// datetimeLayout is how order dates are stored; SQLite date functions accept it.
const datetimeLayout = "2006-01-02 15:04:05"

// LoadFunc loads the orders named by a DSN.
type LoadFunc func(ctx context.Context, dsn string) (*model.Table, error)

// Driver implements database/sql/driver.Driver interface for order files.
type Driver struct {
	load LoadFunc
}

// Connector implements database/sql/driver.Connector interface.
// It holds either a DSN to load on connect or an already loaded table.
type Connector struct {
	driver *Driver
	dsn    string
	table  *model.Table
}

// Connection implements database/sql/driver.Conn interface.
// It wraps an underlying SQLite connection that contains the loaded orders.
type Connection struct {
	conn driver.Conn
}

// Transaction implements database/sql/driver.Tx interface.
type Transaction struct {
	tx driver.Tx
}

// NewDriver creates a driver that loads DSNs with load.
func NewDriver(load LoadFunc) *Driver {
	return &Driver{load: load}
}

// Open implements driver.Driver interface
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext interface
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoPathProvided
	}
	return &Connector{
		driver: d,
		dsn:    dsn,
	}, nil
}

// NewTableConnector returns a connector serving an already loaded table.
// Use it with sql.OpenDB.
func NewTableConnector(table *model.Table) *Connector {
	return &Connector{
		driver: &Driver{},
		table:  table,
	}
}

// Connect implements driver.Connector interface
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	table, err := c.resolveTable(ctx)
	if err != nil {
		return nil, err
	}

	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	if err := loadTableIntoDatabase(ctx, conn, table); err != nil {
		_ = conn.Close() // Ignore close error since we're already returning an error
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	return &Connection{conn: conn}, nil
}

// Driver implements driver.Connector interface
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// resolveTable returns the connector's table, loading the DSN when needed.
func (c *Connector) resolveTable(ctx context.Context) (*model.Table, error) {
	if c.table != nil {
		return c.table, nil
	}
	if c.driver == nil || c.driver.load == nil {
		return nil, ErrNoLoader
	}
	table, err := c.driver.load(ctx, c.dsn)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrNilTable
	}
	return table, nil
}

// loadTableIntoDatabase creates the orders table and inserts every row in one transaction.
func loadTableIntoDatabase(ctx context.Context, conn driver.Conn, table *model.Table) error {
	fields := table.Fields().Fields()
	if len(fields) == 0 {
		return ErrNoColumns
	}

	if err := execStatement(ctx, conn, buildCreateTableQuery(fields), nil); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	if table.Len() == 0 {
		return nil
	}

	beginner, ok := conn.(driver.ConnBeginTx)
	if !ok {
		return ErrBeginTxNotSupported
	}
	tx, err := beginner.BeginTx(ctx, driver.TxOptions{})
	if err != nil {
		return err
	}

	if err := insertOrders(ctx, conn, fields, table.Orders()); err != nil {
		_ = tx.Rollback() // Ignore rollback error, the insert error is more useful
		return fmt.Errorf("failed to insert records: %w", err)
	}
	return tx.Commit()
}

// buildCreateTableQuery constructs the CREATE TABLE query for the available fields
func buildCreateTableQuery(fields []model.Field) string {
	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, fmt.Sprintf(`[%s] %s`, f, model.TypeOf(f)))
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS [%s] (%s)`, TableName, strings.Join(columns, ", "))
}

// buildInsertQuery constructs the INSERT query for the available fields
func buildInsertQuery(fields []model.Field) string {
	return fmt.Sprintf(`INSERT INTO [%s] VALUES (%s)`, TableName, buildPlaceholders(len(fields)))
}

// buildPlaceholders creates placeholder string for prepared statements
func buildPlaceholders(count int) string {
	if count == 0 {
		return ""
	}
	return "?" + strings.Repeat(", ?", count-1)
}

// insertOrders inserts all orders using one prepared statement
func insertOrders(ctx context.Context, conn driver.Conn, fields []model.Field, orders []model.Order) error {
	preparer, ok := conn.(driver.ConnPrepareContext)
	if !ok {
		return ErrPrepareContextNotSupported
	}
	stmt, err := preparer.PrepareContext(ctx, buildInsertQuery(fields))
	if err != nil {
		return err
	}
	defer stmt.Close()

	execer, ok := stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}
	args := make([]driver.NamedValue, len(fields))
	for _, o := range orders {
		for i, f := range fields {
			args[i] = driver.NamedValue{Ordinal: i + 1, Value: orderValue(o, f)}
		}
		if _, err := execer.ExecContext(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// orderValue converts one field of an order to a driver value. Missing values become NULL.
func orderValue(o model.Order, f model.Field) driver.Value {
	switch f {
	case model.FieldOrderDate:
		if !o.HasOrderDate() {
			return nil
		}
		return o.OrderDate.Format(datetimeLayout)
	case model.FieldTotal:
		if !o.HasTotal {
			return nil
		}
		// Shortest decimal form, so 402.03 is stored as 402.03 and not 402.029998779296875
		v, _ := strconv.ParseFloat(strconv.FormatFloat(float64(o.Total), 'g', -1, 32), 64)
		return v
	case model.FieldAge:
		if !o.HasAge {
			return nil
		}
		return int64(o.Age)
	default:
		if v := o.Text(f); v != "" {
			return v
		}
		return nil
	}
}

// execStatement prepares and executes a statement that returns no rows
func execStatement(ctx context.Context, conn driver.Conn, query string, args []driver.NamedValue) error {
	preparer, ok := conn.(driver.ConnPrepareContext)
	if !ok {
		return ErrPrepareContextNotSupported
	}
	stmt, err := preparer.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	execer, ok := stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}
	_, err = execer.ExecContext(ctx, args)
	return err
}

// Close implements driver.Conn interface
func (conn *Connection) Close() error {
	if conn.conn != nil {
		return conn.conn.Close()
	}
	return nil
}

// Begin implements driver.Conn interface (deprecated, use BeginTx instead)
func (conn *Connection) Begin() (driver.Tx, error) {
	return conn.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx interface
func (conn *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if connBeginTx, ok := conn.conn.(driver.ConnBeginTx); ok {
		tx, err := connBeginTx.BeginTx(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &Transaction{tx: tx}, nil
	}
	return nil, ErrBeginTxNotSupported
}

// Commit implements driver.Tx interface
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback implements driver.Tx interface
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// Prepare implements driver.Conn interface (deprecated, use PrepareContext instead)
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.PrepareContext(context.Background(), query)
}

// PrepareContext implements driver.ConnPrepareContext interface
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if connPrepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return connPrepareCtx.PrepareContext(ctx, query)
	}
	return nil, ErrPrepareContextNotSupported
}
