package salesdash

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/salesdash/domain/model"
	"github.com/xuri/excelize/v2"
)

// File format delimiters
const (
	// csvDelimiter is the delimiter for CSV files
	csvDelimiter = ','
	// tsvDelimiter is the delimiter for TSV files
	tsvDelimiter = '\t'
)

// file describes an input named by path or upload file name.
type file struct {
	name        string
	fileType    FileType
	compression CompressionType
}

// newFile creates a new file
func newFile(name string) *file {
	return &file{
		name:        name,
		fileType:    model.DetectFileType(name),
		compression: model.DetectCompressionType(name),
	}
}

// isSupported reports whether the file extension names a readable format.
func (f *file) isSupported() bool {
	return f.fileType != model.FileTypeUnsupported
}

// parse decompresses and parses the reader according to the file extension.
func (f *file) parse(ctx context.Context, reader io.Reader) (*rawTable, error) {
	if !f.isSupported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.name)
	}

	compression := f.compression
	if compression == model.CompressionNone {
		buffered := bufio.NewReader(reader)
		compression = sniffCompression(buffered)
		reader = buffered
	}
	decompressed, err := decompress(compression, reader)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = decompressed.Close() // Ignore close error in cleanup
	}()

	var (
		h       header
		records []record
	)
	switch f.fileType {
	case model.FileTypeCSV:
		h, records, err = parseDelimited(decompressed, csvDelimiter)
	case model.FileTypeTSV:
		h, records, err = parseDelimited(decompressed, tsvDelimiter)
	case model.FileTypeLTSV:
		h, records, err = parseLTSV(decompressed)
	case model.FileTypeXLSX:
		h, records, err = parseXLSX(decompressed)
	case model.FileTypeParquet:
		h, records, err = parseParquet(ctx, decompressed)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.name)
	}
	if err != nil {
		return nil, err
	}

	if err := validateColumnNames(h); err != nil {
		return nil, err
	}
	return newRawTable(model.TableFromFilePath(f.name), f.fileType, h, records), nil
}

// validateColumnNames rejects headers that name the same column twice.
func validateColumnNames(h header) error {
	seen := make(map[string]bool, len(h))
	for _, name := range h {
		if seen[name] {
			return fmt.Errorf("%w: %s", model.ErrDuplicateColumnName, name)
		}
		seen[name] = true
	}
	return nil
}

// parseDelimited parses CSV or TSV data with specified delimiter
func parseDelimited(reader io.Reader, delimiter rune) (header, []record, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1 // Short rows are padded by record.get
	if delimiter == tsvDelimiter {
		csvReader.LazyQuotes = true
	}

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyData
	}

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, newRecord(row))
	}
	return newHeader(rows[0]), records, nil
}

// parseLTSV parses LTSV data. Columns are ordered by first appearance.
func parseLTSV(reader io.Reader) (header, []record, error) {
	var (
		keys    []string
		known   = make(map[string]bool)
		entries []map[string]string
	)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		entry := make(map[string]string)
		for _, pair := range strings.Split(line, "\t") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			entry[key] = strings.TrimSpace(kv[1])
			if !known[key] {
				known[key] = true
				keys = append(keys, key)
			}
		}
		if len(entry) > 0 {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, ErrEmptyData
	}

	records := make([]record, 0, len(entries))
	for _, entry := range entries {
		row := make(record, len(keys))
		for i, key := range keys {
			row[i] = entry[key]
		}
		records = append(records, row)
	}
	return newHeader(keys), records, nil
}

// parseXLSX parses the first sheet of an XLSX workbook.
// Cells are read raw so that dates arrive as serial numbers and totals keep full precision.
func parseXLSX(reader io.Reader) (header, []record, error) {
	// excelize needs random access, so the workbook is buffered in memory
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, err
	}

	xlsxFile, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	sheetNames := xlsxFile.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, nil, errors.New("no sheets found in Excel file")
	}

	sheetName := sheetNames[0]
	rows, err := xlsxFile.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %s is empty", ErrEmptyData, sheetName)
	}

	h, records := convertXLSXRowsToTable(rows)
	return h, records, nil
}

// convertXLSXRowsToTable converts XLSX rows to table headers and records
// First row becomes headers, remaining rows become records with padding
func convertXLSXRowsToTable(rows [][]string) (header, []record) {
	headers := newHeader(rows[0])

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := make(record, len(headers))
		copy(r, row)
		records = append(records, r)
	}
	return headers, records
}

// parseParquet parses Parquet data into string records
func parseParquet(ctx context.Context, reader io.Reader) (header, []record, error) {
	// Parquet requires random access
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptyData
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	names := make([]string, schema.NumFields())
	for i, field := range schema.Fields() {
		names[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	records := make([]record, 0, table.NumRows())
	for tableReader.Next() {
		batch := tableReader.Record()
		columns := batch.Columns()
		for i := 0; i < int(batch.NumRows()); i++ {
			row := make(record, len(columns))
			for j, col := range columns {
				if col.IsNull(i) {
					continue
				}
				row[j] = col.ValueStr(i)
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading table records: %w", err)
	}

	return newHeader(names), records, nil
}
