package salesdash

import (
	"strings"
)

// header is file header.
type header []string

// newHeader create new header. Surrounding spaces and a leading UTF-8 BOM are removed.
func newHeader(h []string) header {
	out := make(header, len(h))
	for i, name := range h {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

// indexOf returns the column position of name.
func (h header) indexOf(name string) (int, bool) {
	for i, v := range h {
		if v == name {
			return i, true
		}
	}
	return -1, false
}

// record is one raw row.
type record []string

// newRecord create new record.
func newRecord(r []string) record {
	return record(r)
}

// get returns the value at column i, or "" when the row is short.
func (r record) get(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return r[i]
}

// rawTable represents file contents before normalization.
type rawTable struct {
	// name is table name derived from file path.
	name string
	// fileType is the base format the table was parsed from.
	fileType FileType
	// header is table header.
	header header
	// records is table records.
	records []record
}

// newRawTable create new rawTable.
func newRawTable(
	name string,
	fileType FileType,
	header header,
	records []record,
) *rawTable {
	return &rawTable{
		name:     name,
		fileType: fileType,
		header:   header,
		records:  records,
	}
}

// column returns an accessor for the named column.
func (t *rawTable) column(name string) (func(record) string, bool) {
	idx, ok := t.header.indexOf(name)
	if !ok {
		return nil, false
	}
	return func(r record) string { return r.get(idx) }, true
}
