package salesdash

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	// exportSheetName is the worksheet written to XLSX exports
	exportSheetName = "Sheet1"
	// exportDateLayout is used for dates that carry no time of day
	exportDateLayout = "2006-01-02"
	// exportDatetimeLayout is used for dates with a time of day
	exportDatetimeLayout = "2006-01-02 15:04:05"
	// excelDatetimeNumFmt is the built-in "m/d/yy h:mm" number format
	excelDatetimeNumFmt = 22
	// defaultExportName is used when the table has no name
	defaultExportName = "orders"
)

// Export writes t to w in the format and compression selected by opts.
// Columns are the table's available fields in projection order; missing
// values are written empty (or null in Parquet).
func Export(ctx context.Context, w io.Writer, t *Table, opts ExportOptions) error {
	ec := NewErrorContext("export", t.Name()+opts.FileExtension())
	if err := ctx.Err(); err != nil {
		return ec.Error(fmt.Errorf("%w: %w", ErrContextCancelled, err))
	}
	writer, err := compress(opts.Compression, w)
	if err != nil {
		return ec.Error(err)
	}

	fields := t.Fields().Fields()
	switch opts.Format {
	case model.FileTypeCSV:
		err = writeDelimited(writer, t, fields, csvDelimiter)
	case model.FileTypeTSV:
		err = writeDelimited(writer, t, fields, tsvDelimiter)
	case model.FileTypeLTSV:
		err = writeLTSV(writer, t, fields)
	case model.FileTypeXLSX:
		err = writeXLSX(writer, t, fields)
	case model.FileTypeParquet:
		err = writeParquet(writer, t, fields)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return ec.Error(errors.Join(err, writer.Close()))
	}
	if err := writer.Close(); err != nil {
		return ec.Error(err)
	}
	return nil
}

// ExportFile writes t into outputDir and returns the created path.
// The file name is the table name plus the extension of opts.
func ExportFile(ctx context.Context, t *Table, outputDir string, opts ExportOptions) (path string, err error) {
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := t.Name()
	if name == "" {
		name = defaultExportName
	}
	path = filepath.Join(outputDir, name+opts.FileExtension())

	f, err := os.Create(path) //nolint:gosec // path is built from the output directory and table name
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := Export(ctx, f, t, opts); err != nil {
		return "", err
	}
	return path, nil
}

// headerRow returns the column names of the exported fields.
func headerRow(fields []Field) []string {
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = f.String()
	}
	return row
}

// formatValue renders one field as text. Missing values render as "".
func formatValue(o Order, f Field) string {
	switch f {
	case model.FieldOrderDate:
		if !o.HasOrderDate() {
			return ""
		}
		if h, m, s := o.OrderDate.Clock(); h == 0 && m == 0 && s == 0 && o.OrderDate.Nanosecond() == 0 {
			return o.OrderDate.Format(exportDateLayout)
		}
		return o.OrderDate.Format(exportDatetimeLayout)
	case model.FieldTotal:
		if !o.HasTotal {
			return ""
		}
		return strconv.FormatFloat(float64(o.Total), 'f', -1, 32)
	case model.FieldAge:
		if !o.HasAge {
			return ""
		}
		return strconv.Itoa(int(o.Age))
	default:
		return o.Text(f)
	}
}

// writeDelimited writes CSV or TSV
func writeDelimited(w io.Writer, t *Table, fields []Field, delimiter rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter

	if err := cw.Write(headerRow(fields)); err != nil {
		return err
	}
	row := make([]string, len(fields))
	for _, o := range t.Orders() {
		for i, f := range fields {
			row[i] = formatValue(o, f)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ltsvEscaper replaces the characters that would break an LTSV line.
var ltsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// writeLTSV writes one "label:value" line per order
func writeLTSV(w io.Writer, t *Table, fields []Field) error {
	var sb strings.Builder
	for _, o := range t.Orders() {
		sb.Reset()
		for i, f := range fields {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(f.String())
			sb.WriteByte(':')
			sb.WriteString(ltsvEscaper.Replace(formatValue(o, f)))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// writeXLSX writes a single sheet workbook. Dates are real spreadsheet dates
// and numbers are numeric cells.
func writeXLSX(w io.Writer, t *Table, fields []Field) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close() // Ignore close error
	}()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: excelDatetimeNumFmt})
	if err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(fields))
	for i, name := range headerRow(fields) {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for r, o := range t.Orders() {
		row := make([]any, len(fields))
		for i, field := range fields {
			row[i] = xlsxValue(o, field, dateStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

// xlsxValue returns a typed cell value, or nil for a missing value.
func xlsxValue(o Order, f Field, dateStyle int) any {
	switch f {
	case model.FieldOrderDate:
		if !o.HasOrderDate() {
			return nil
		}
		return excelize.Cell{StyleID: dateStyle, Value: o.OrderDate}
	case model.FieldTotal:
		if !o.HasTotal {
			return nil
		}
		return o.Total
	case model.FieldAge:
		if !o.HasAge {
			return nil
		}
		return int(o.Age)
	default:
		if v := o.Text(f); v != "" {
			return v
		}
		return nil
	}
}

// arrowType returns the Arrow column type of a field.
func arrowType(f Field) arrow.DataType {
	switch model.TypeOf(f) {
	case model.ColumnTypeDatetime:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	case model.ColumnTypeReal:
		return arrow.PrimitiveTypes.Float32
	case model.ColumnTypeInteger:
		return arrow.PrimitiveTypes.Int8
	default:
		return arrow.BinaryTypes.String
	}
}

// writeParquet writes one row group holding every order.
func writeParquet(w io.Writer, t *Table, fields []Field) error {
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		arrowFields[i] = arrow.Field{Name: f.String(), Type: arrowType(f), Nullable: true}
	}
	schema := arrow.NewSchema(arrowFields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	for _, o := range t.Orders() {
		for i, f := range fields {
			appendArrowValue(builder.Field(i), o, f)
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	// The Parquet writer closes its sink; the compression writer is closed by Export
	fw, err := pqarrow.NewFileWriter(schema, struct{ io.Writer }{w}, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fw.Write(record); err != nil {
		return errors.Join(fmt.Errorf("failed to write parquet record: %w", err), fw.Close())
	}
	return fw.Close()
}

// appendArrowValue appends one field of an order to its column builder.
func appendArrowValue(b array.Builder, o Order, f Field) {
	switch col := b.(type) {
	case *array.TimestampBuilder:
		if !o.HasOrderDate() {
			col.AppendNull()
			return
		}
		col.Append(arrow.Timestamp(o.OrderDate.UnixMilli()))
	case *array.Float32Builder:
		if !o.HasTotal {
			col.AppendNull()
			return
		}
		col.Append(o.Total)
	case *array.Int8Builder:
		if !o.HasAge {
			col.AppendNull()
			return
		}
		col.Append(o.Age)
	case *array.StringBuilder:
		v := o.Text(f)
		if v == "" {
			col.AppendNull()
			return
		}
		col.Append(v)
	default:
		b.AppendNull()
	}
}
