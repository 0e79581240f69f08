package model

import (
	"path/filepath"
	"strings"
)

// Warning is a non-fatal problem found while loading a table.
type Warning struct {
	// Field is the column the warning is about, if any
	Field Field `json:"field,omitempty"`
	// Message is a human readable description
	Message string `json:"message"`
}

// String returns the warning message
func (w Warning) String() string {
	return w.Message
}

// Table is an immutable set of orders with the fields they carry.
type Table struct {
	// name is table name derived from file path.
	name string
	// fields is the set of available columns.
	fields FieldSet
	// orders is table rows.
	orders []Order
	// warnings collected during load.
	warnings []Warning
}

// NewTable create new Table.
func NewTable(
	name string,
	fields FieldSet,
	orders []Order,
	warnings []Warning,
) *Table {
	return &Table{
		name:     name,
		fields:   fields,
		orders:   orders,
		warnings: warnings,
	}
}

// Name return table name.
func (t *Table) Name() string {
	return t.name
}

// Fields returns the available fields.
func (t *Table) Fields() FieldSet {
	return t.fields
}

// Orders return table rows. Callers must not modify the returned slice.
func (t *Table) Orders() []Order {
	return t.orders
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.orders)
}

// Warnings returns the load warnings.
func (t *Table) Warnings() []Warning {
	return t.warnings
}

// Derive returns a new table with the same name, fields and warnings and the given rows.
func (t *Table) Derive(orders []Order) *Table {
	return &Table{
		name:     t.name,
		fields:   t.fields,
		orders:   orders,
		warnings: t.warnings,
	}
}

// TableFromFilePath creates table name from file path
func TableFromFilePath(filePath string) string {
	fileName := filepath.Base(filePath)
	// Remove compression extensions first
	for _, ext := range []string{ExtGZ, ExtBZ2, ExtXZ, ExtZSTD} {
		if strings.HasSuffix(strings.ToLower(fileName), ext) {
			fileName = fileName[:len(fileName)-len(ext)]
			break
		}
	}
	// Then remove the file type extension
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}
