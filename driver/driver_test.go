package driver

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/salesdash/domain/model"
)

func testTable() *model.Table {
	orders := []model.Order{
		{
			OrderDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), Region: "West", StateName: "Californie",
			Total: 402.03, HasTotal: true, OrderID: "1", Age: 34, HasAge: true, Category: "Appliances",
		},
		{
			OrderDate: time.Date(2023, 2, 1, 9, 30, 0, 0, time.UTC), Region: "South", StateName: "Texas",
			Total: 50, HasTotal: true, OrderID: "2", Category: "Books",
		},
		{Region: "South", OrderID: "3", Category: "Books"},
	}
	fields := model.NewFieldSet(
		model.FieldOrderDate, model.FieldRegion, model.FieldStateName, model.FieldTotal,
		model.FieldOrderID, model.FieldAge, model.FieldCategory,
	)
	return model.NewTable("orders", fields, orders, nil)
}

func TestNewDriver(t *testing.T) {
	t.Parallel()

	t.Run("Create new driver", func(t *testing.T) {
		t.Parallel()

		d := NewDriver(nil)
		if d == nil {
			t.Error("NewDriver() returned nil")
		}
	})
}

func TestDriverOpen(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("no such file")
	d := NewDriver(func(_ context.Context, dsn string) (*model.Table, error) {
		switch dsn {
		case "orders.csv":
			return testTable(), nil
		case "nil.csv":
			return nil, nil
		default:
			return nil, loadErr
		}
	})

	tests := []struct {
		name    string
		dsn     string
		wantErr error
	}{
		{name: "Valid DSN", dsn: "orders.csv"},
		{name: "Empty DSN", dsn: " ", wantErr: ErrNoPathProvided},
		{name: "Load error", dsn: "missing.csv", wantErr: loadErr},
		{name: "Loader returns no table", dsn: "nil.csv", wantErr: ErrNilTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn, err := d.Open(tt.dsn)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer conn.Close()

			stmt, err := conn.Prepare("SELECT COUNT(*) FROM orders")
			if err != nil {
				t.Fatalf("Prepare() error = %v", err)
			}
			defer stmt.Close()
		})
	}
}

func TestConnectorWithoutLoader(t *testing.T) {
	t.Parallel()

	connector, err := NewDriver(nil).OpenConnector("orders.csv")
	if err != nil {
		t.Fatalf("OpenConnector() error = %v", err)
	}
	if _, err := connector.Connect(context.Background()); !errors.Is(err, ErrNoLoader) {
		t.Errorf("Connect() error = %v, want %v", err, ErrNoLoader)
	}
}

func TestTableConnector(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sql.OpenDB(NewTableConnector(testTable()))
	defer db.Close()
	db.SetMaxOpenConns(1)

	t.Run("typed columns", func(t *testing.T) {
		var (
			date  string
			total float64
			age   int64
		)
		err := db.QueryRowContext(ctx,
			`SELECT order_date, total, age FROM orders WHERE order_id = '1'`,
		).Scan(&date, &total, &age)
		if err != nil {
			t.Fatalf("QueryRow() error = %v", err)
		}
		if date != "2023-01-05 00:00:00" {
			t.Errorf("order_date = %q, want %q", date, "2023-01-05 00:00:00")
		}
		if total != 402.03 {
			t.Errorf("total = %v, want 402.03", total)
		}
		if age != 34 {
			t.Errorf("age = %d, want 34", age)
		}
	})

	t.Run("missing values are NULL", func(t *testing.T) {
		var (
			date  sql.NullString
			total sql.NullFloat64
			age   sql.NullInt64
			state sql.NullString
		)
		err := db.QueryRowContext(ctx,
			`SELECT order_date, total, age, [State Complet] FROM orders WHERE order_id = '3'`,
		).Scan(&date, &total, &age, &state)
		if err != nil {
			t.Fatalf("QueryRow() error = %v", err)
		}
		if date.Valid || total.Valid || age.Valid || state.Valid {
			t.Errorf("expected NULLs, got %v %v %v %v", date, total, age, state)
		}
	})

	t.Run("aggregation and date functions", func(t *testing.T) {
		var sum float64
		err := db.QueryRowContext(ctx,
			`SELECT SUM(total) FROM orders WHERE strftime('%m', order_date) IN ('01', '02')`,
		).Scan(&sum)
		if err != nil {
			t.Fatalf("QueryRow() error = %v", err)
		}
		if sum != 452.03 {
			t.Errorf("SUM(total) = %v, want 452.03", sum)
		}
	})

	t.Run("absent fields have no column", func(t *testing.T) {
		if _, err := db.ExecContext(ctx, `SELECT County FROM orders`); err == nil {
			t.Error("expected an error selecting an absent column")
		}
	})
}

func TestTableConnectorWithoutFields(t *testing.T) {
	t.Parallel()

	table := model.NewTable("orders", model.NewFieldSet(), nil, nil)
	if _, err := NewTableConnector(table).Connect(context.Background()); !errors.Is(err, ErrNoColumns) {
		t.Errorf("Connect() error = %v, want %v", err, ErrNoColumns)
	}
}

func TestBuildQueries(t *testing.T) {
	t.Parallel()

	fields := []model.Field{model.FieldOrderDate, model.FieldStateName, model.FieldTotal, model.FieldAge}
	wantCreate := `CREATE TABLE IF NOT EXISTS [orders] ([order_date] TEXT, [State Complet] TEXT, [total] REAL, [age] INTEGER)`
	if got := buildCreateTableQuery(fields); got != wantCreate {
		t.Errorf("buildCreateTableQuery() = %q, want %q", got, wantCreate)
	}
	wantInsert := `INSERT INTO [orders] VALUES (?, ?, ?, ?)`
	if got := buildInsertQuery(fields); got != wantInsert {
		t.Errorf("buildInsertQuery() = %q, want %q", got, wantInsert)
	}
	if got := buildPlaceholders(0); got != "" {
		t.Errorf("buildPlaceholders(0) = %q, want empty", got)
	}
}
