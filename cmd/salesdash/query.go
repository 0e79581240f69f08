package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/salesdash"
	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	var sel selectionFlags
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run SQL against the orders table",
		Long: "Run a SQL query against the loaded (and optionally filtered) orders.\n" +
			"The orders are available as the \"" + salesdash.SQLTableName + "\" table.",
		Example: `  salesdash query "SELECT Region, SUM(total) FROM orders GROUP BY Region"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			selection, err := sel.selection()
			if err != nil {
				return err
			}

			table, err := a.loadTable(ctx)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			db, err := salesdash.OpenDB(ctx, salesdash.Apply(table, selection))
			if err != nil {
				return fmt.Errorf("open orders database: %w", err)
			}
			defer closeQuietly(ctx, "orders database", db.Close)

			return runQuery(ctx, cmd.OutOrStdout(), db, args[0])
		},
	}
	sel.register(cmd)
	return cmd
}

// runQuery prints the result set of query as a table.
func runQuery(ctx context.Context, w io.Writer, db *sql.DB, query string) (err error) {
	if strings.TrimSpace(query) == "" {
		return errors.New("query is empty")
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	var out [][]string
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatCell(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	if err := renderTable(w, fmt.Sprintf("%d rows", len(out)), columns, out); err != nil {
		return err
	}
	return nil
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
