package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/salesdash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `geocoder:
  provider: static
log:
  level: error
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "salesdash.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReport(t *testing.T) {
	t.Parallel()

	t.Run("selected panels", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "report", "--panel", "category,region", "--region", "West")
		require.NoError(t, err)
		assert.Contains(t, out, "KPIs")
		assert.Contains(t, out, "Sales by Category")
		assert.Contains(t, out, "Sales by Region")
		assert.NotContains(t, out, "Monthly Sales Trend")
	})

	t.Run("map with the static geocoder", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "report", "--panel", "map", "--state", "Californie", "--region", "West")
		require.NoError(t, err)
		assert.Contains(t, out, "Sales by State")
		assert.Contains(t, out, "Californie")
	})

	t.Run("missing columns skip panels", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "orders.csv")
		require.NoError(t, os.WriteFile(path, []byte("order_date,total\n2023-01-01,5\n"), 0600))

		out, err := run(t, "report", "--file", path)
		require.NoError(t, err)
		assert.Contains(t, out, "category: skipped, missing category")
		assert.Contains(t, out, "warning: 'State' is not present in the file columns")
		assert.Contains(t, out, "January 2023")
	})

	t.Run("empty selection", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "report", "--panel", "gender", "--region", "Mars")
		require.NoError(t, err)
		assert.Contains(t, out, "(no data)")
		assert.Contains(t, out, "$0.00")
	})

	for _, args := range [][]string{
		{"report", "--panel", "radar"},
		{"report", "--from", "last week"},
		{"report", "--geocoder", "bing"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Parallel()

			_, err := run(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestExport(t *testing.T) {
	t.Parallel()

	t.Run("compressed tsv", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		out, err := run(t, "export", "--format", "tsv", "--compression", "gz", "--out", dir, "--status", "complete")
		require.NoError(t, err)

		path := filepath.Join(dir, "orders.tsv.gz")
		assert.Contains(t, out, path)

		table, err := salesdash.Load(context.Background(), path)
		require.NoError(t, err)
		require.NotZero(t, table.Len())
		for _, o := range table.Orders() {
			if o.Status != "complete" {
				t.Errorf("exported order %s has status %q", o.OrderID, o.Status)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "export", "--format", "json", "--out", t.TempDir())
		assert.ErrorIs(t, err, salesdash.ErrUnsupportedFormat)
	})

	t.Run("bzip2 is read only", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "export", "--compression", "bz2", "--out", t.TempDir())
		assert.ErrorIs(t, err, salesdash.ErrUnsupportedFormat)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	t.Run("count", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "query", "SELECT COUNT(*) AS n FROM orders")
		require.NoError(t, err)
		assert.Contains(t, out, "1 rows")
		assert.Contains(t, out, "400")
	})

	t.Run("filtered", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "query", "--region", "Mars", "SELECT COUNT(*) AS n FROM orders")
		require.NoError(t, err)
		assert.Contains(t, out, "0")
	})

	t.Run("nulls", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "orders.csv")
		require.NoError(t, os.WriteFile(path, []byte("order_id,total\n1,\n"), 0600))

		out, err := run(t, "--file", path, "query", "SELECT total FROM orders")
		require.NoError(t, err)
		assert.Contains(t, out, "NULL")
	})

	t.Run("invalid SQL", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "query", "SELECT FROM nowhere")
		assert.Error(t, err)
	})

	t.Run("needs one argument", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "query")
		assert.Error(t, err)
	})
}

func TestFormatCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: "NULL"},
		{in: []byte("West"), want: "West"},
		{in: int64(3), want: "3"},
		{in: 1.5, want: "1.5"},
	}
	for _, tt := range tests {
		if got := formatCell(tt.in); got != tt.want {
			t.Errorf("formatCell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecute_NilContext(t *testing.T) {
	t.Parallel()

	//nolint:staticcheck // nil context is the case under test
	assert.Error(t, Execute(nil, nil))
}
