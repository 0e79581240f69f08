// Package model provides domain model for salesdash
package model

import (
	"time"
)

// Field is a column name of the order table.
type Field string

const (
	// FieldOrderDate is the order date column
	FieldOrderDate Field = "order_date"
	// FieldRegion is the sales region column
	FieldRegion Field = "Region"
	// FieldState is the two-letter state code column found in source files.
	// It never survives projection; FieldStateName replaces it.
	FieldState Field = "State"
	// FieldStateName is the full state display name derived from FieldState
	FieldStateName Field = "State Complet"
	// FieldCounty is the county column
	FieldCounty Field = "County"
	// FieldCity is the city column
	FieldCity Field = "City"
	// FieldStatus is the order status column
	FieldStatus Field = "status"
	// FieldTotal is the monetary total column
	FieldTotal Field = "total"
	// FieldCustomerID is the customer identifier column
	FieldCustomerID Field = "cust_id"
	// FieldOrderID is the order identifier column
	FieldOrderID Field = "order_id"
	// FieldFullName is the customer full name column
	FieldFullName Field = "full_name"
	// FieldAge is the customer age column
	FieldAge Field = "age"
	// FieldGender is the customer gender column
	FieldGender Field = "Gender"
	// FieldCategory is the product category column
	FieldCategory Field = "category"
)

// ProjectedFields is the column allowlist kept after load, in output order.
var ProjectedFields = []Field{
	FieldOrderDate,
	FieldRegion,
	FieldStateName,
	FieldCounty,
	FieldCity,
	FieldStatus,
	FieldTotal,
	FieldCustomerID,
	FieldOrderID,
	FieldFullName,
	FieldAge,
	FieldGender,
	FieldCategory,
}

// String returns the column name
func (f Field) String() string {
	return string(f)
}

// FieldSet is the set of fields available in a loaded table.
// The zero value is an empty set.
type FieldSet struct {
	fields map[Field]struct{}
}

// NewFieldSet creates a FieldSet holding the given fields
func NewFieldSet(fields ...Field) FieldSet {
	fs := FieldSet{fields: make(map[Field]struct{}, len(fields))}
	for _, f := range fields {
		fs.fields[f] = struct{}{}
	}
	return fs
}

// Has reports whether every given field is available
func (fs FieldSet) Has(fields ...Field) bool {
	for _, f := range fields {
		if _, ok := fs.fields[f]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the given fields that are not available, in argument order
func (fs FieldSet) Missing(fields ...Field) []Field {
	var missing []Field
	for _, f := range fields {
		if !fs.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Len returns the number of available fields
func (fs FieldSet) Len() int {
	return len(fs.fields)
}

// Fields returns the available fields in ProjectedFields order
func (fs FieldSet) Fields() []Field {
	out := make([]Field, 0, len(fs.fields))
	for _, f := range ProjectedFields {
		if fs.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Order is one row of the loaded table.
//
// Text fields use the empty string for "no value". OrderDate uses the zero time
// for a missing or unparseable date.
type Order struct {
	OrderDate  time.Time
	Region     string
	StateName  string
	County     string
	City       string
	Status     string
	Total      float32
	HasTotal   bool
	CustomerID string
	OrderID    string
	FullName   string
	Age        int8
	HasAge     bool
	Gender     string
	Category   string
}

// HasOrderDate reports whether the order date was present and parseable
func (o Order) HasOrderDate() bool {
	return !o.OrderDate.IsZero()
}

// Text returns the value of a text field. Non-text fields return "".
func (o Order) Text(f Field) string {
	switch f {
	case FieldRegion:
		return o.Region
	case FieldStateName:
		return o.StateName
	case FieldCounty:
		return o.County
	case FieldCity:
		return o.City
	case FieldStatus:
		return o.Status
	case FieldCustomerID:
		return o.CustomerID
	case FieldOrderID:
		return o.OrderID
	case FieldFullName:
		return o.FullName
	case FieldGender:
		return o.Gender
	case FieldCategory:
		return o.Category
	default:
		return ""
	}
}

// ColumnType represents the SQL column type
type ColumnType int

const (
	// ColumnTypeText represents TEXT column type
	ColumnTypeText ColumnType = iota
	// ColumnTypeInteger represents INTEGER column type
	ColumnTypeInteger
	// ColumnTypeReal represents REAL column type
	ColumnTypeReal
	// ColumnTypeDatetime represents datetime stored as TEXT in ISO8601 format
	ColumnTypeDatetime
)

const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeReal    = "REAL"
)

// String returns the SQL column type string
func (ct ColumnType) String() string {
	switch ct {
	case ColumnTypeInteger:
		return sqlTypeInteger
	case ColumnTypeReal:
		return sqlTypeReal
	case ColumnTypeText, ColumnTypeDatetime:
		return sqlTypeText // SQLite stores datetime as TEXT in ISO8601 format
	default:
		return sqlTypeText
	}
}

// TypeOf returns the SQL column type used to store a field
func TypeOf(f Field) ColumnType {
	switch f {
	case FieldOrderDate:
		return ColumnTypeDatetime
	case FieldTotal:
		return ColumnTypeReal
	case FieldAge:
		return ColumnTypeInteger
	default:
		return ColumnTypeText
	}
}
