package salesdash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/salesdash/domain/model"
)

// Loader reads order files into normalized tables.
//
// A Loader is safe for concurrent use; it holds configuration only.
type Loader struct {
	// defaultFS holds the bundled dataset used when no file is supplied
	defaultFS fs.FS
	// defaultName is the dataset path inside defaultFS
	defaultName string
	// logger receives load summaries and warnings
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDefaultDataset replaces the bundled default dataset.
// name is a path inside fsys whose extension selects the format.
func WithDefaultDataset(fsys fs.FS, name string) LoaderOption {
	return func(l *Loader) {
		l.defaultFS = fsys
		l.defaultName = name
	}
}

// WithLoaderLogger sets the logger used for load summaries and warnings.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader. Without options it falls back to the embedded sample orders.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		defaultFS:   defaultDataset,
		defaultName: defaultDatasetName,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file at path. The format is chosen from the extension:
// CSV, TSV, LTSV, XLSX (first sheet) or Parquet, optionally compressed
// with gzip, bzip2, xz or zstd.
//
// Errors wrap ErrUnsupportedFormat, ErrFileNotFound, ErrPermissionDenied or
// ErrInvalidData. No table is returned on error.
func (l *Loader) Load(ctx context.Context, path string) (*Table, error) {
	ec := NewErrorContext("load", path)
	if strings.TrimSpace(path) == "" {
		return nil, ec.Error(fmt.Errorf("%w: path cannot be empty", ErrFileNotFound))
	}
	if !newFile(path).isSupported() {
		return nil, ec.Error(ErrUnsupportedFormat)
	}

	f, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, ec.Error(ErrFileNotFound)
		case errors.Is(err, fs.ErrPermission):
			return nil, ec.Error(ErrPermissionDenied)
		default:
			return nil, ec.Error(err)
		}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ec.Error(err)
	}
	if info.IsDir() {
		return nil, ec.WithDetails("path is a directory").Error(ErrUnsupportedFormat)
	}

	return l.load(ctx, f, path)
}

// LoadReader reads an uploaded stream. fileName is only used to pick the
// format and the table name.
func (l *Loader) LoadReader(ctx context.Context, reader io.Reader, fileName string) (*Table, error) {
	ec := NewErrorContext("load", fileName)
	if reader == nil {
		return nil, ec.Error(fmt.Errorf("%w: reader cannot be nil", ErrInvalidData))
	}
	if !newFile(fileName).isSupported() {
		return nil, ec.Error(ErrUnsupportedFormat)
	}
	return l.load(ctx, reader, fileName)
}

// LoadDefault reads the default dataset.
func (l *Loader) LoadDefault(ctx context.Context) (*Table, error) {
	if l.defaultFS == nil || l.defaultName == "" {
		return nil, NewErrorContext("load default", "").Error(ErrFileNotFound)
	}

	f, err := l.defaultFS.Open(l.defaultName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewErrorContext("load default", l.defaultName).Error(ErrFileNotFound)
		}
		return nil, NewErrorContext("load default", l.defaultName).Error(err)
	}
	defer f.Close()

	return l.LoadReader(ctx, f, l.defaultName)
}

// load parses and normalizes a table.
func (l *Loader) load(ctx context.Context, reader io.Reader, name string) (*Table, error) {
	ec := NewErrorContext("load", name)
	if err := ctx.Err(); err != nil {
		return nil, ec.Error(fmt.Errorf("%w: %w", ErrContextCancelled, err))
	}

	raw, err := newFile(name).parse(ctx, reader)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			return nil, ec.Error(err)
		}
		return nil, ec.Error(fmt.Errorf("%w: %w", ErrInvalidData, err))
	}

	table := normalize(raw)
	for _, w := range table.Warnings() {
		l.logger.WarnContext(ctx, w.Message, slog.String("file", name), slog.String("field", w.Field.String()))
	}
	l.logger.InfoContext(ctx, "orders loaded",
		slog.String("file", name),
		slog.String("format", raw.fileType.String()),
		slog.Int("rows", table.Len()),
		slog.Int("fields", table.Fields().Len()),
	)
	return table, nil
}

// normalize maps state codes, coerces dates and numbers, and projects the
// raw table onto the field allowlist.
func normalize(raw *rawTable) *Table {
	var (
		warnings []Warning
		present  []Field
	)

	text := func(f Field) func(record) string {
		get, ok := raw.column(f.String())
		if !ok {
			return nil
		}
		present = append(present, f)
		return func(r record) string { return strings.TrimSpace(get(r)) }
	}

	region := text(model.FieldRegion)
	county := text(model.FieldCounty)
	city := text(model.FieldCity)
	status := text(model.FieldStatus)
	customerID := text(model.FieldCustomerID)
	orderID := text(model.FieldOrderID)
	fullName := text(model.FieldFullName)
	gender := text(model.FieldGender)
	category := text(model.FieldCategory)

	var stateName func(record) string
	if code, ok := raw.column(model.FieldState.String()); ok {
		present = append(present, model.FieldStateName)
		stateName = func(r record) string {
			name, _ := model.StateName(code(r))
			return name
		}
	} else if stateName = text(model.FieldStateName); stateName == nil {
		// Files exported by salesdash already carry display names
		warnings = append(warnings, Warning{
			Field:   model.FieldState,
			Message: "'State' is not present in the file columns",
		})
	}

	orderDate, hasDate := raw.column(model.FieldOrderDate.String())
	if hasDate {
		present = append(present, model.FieldOrderDate)
	} else {
		warnings = append(warnings, Warning{
			Field:   model.FieldOrderDate,
			Message: "'order_date' is not present in the file columns",
		})
	}
	total, hasTotal := raw.column(model.FieldTotal.String())
	if hasTotal {
		present = append(present, model.FieldTotal)
	}
	age, hasAge := raw.column(model.FieldAge.String())
	if hasAge {
		present = append(present, model.FieldAge)
	}

	var badDates, badTotals, badAges int
	orders := make([]Order, 0, len(raw.records))
	for _, r := range raw.records {
		var o Order
		o.Region = call(region, r)
		o.StateName = call(stateName, r)
		o.County = call(county, r)
		o.City = call(city, r)
		o.Status = call(status, r)
		o.CustomerID = call(customerID, r)
		o.OrderID = call(orderID, r)
		o.FullName = call(fullName, r)
		o.Gender = call(gender, r)
		o.Category = call(category, r)

		if hasDate {
			value := strings.TrimSpace(orderDate(r))
			t, ok := parseDatetime(value)
			if !ok && raw.fileType == model.FileTypeXLSX {
				t, ok = parseExcelSerial(value)
			}
			if ok {
				o.OrderDate = t
			} else if value != "" {
				badDates++
			}
		}

		if hasTotal {
			value := strings.TrimSpace(total(r))
			if v, ok := narrowFloat32(value); ok {
				o.Total, o.HasTotal = v, true
			} else if value != "" {
				badTotals++
			}
		}

		if hasAge {
			value := strings.TrimSpace(age(r))
			if v, ok := narrowInt8(value); ok {
				o.Age, o.HasAge = v, true
			} else if value != "" {
				badAges++
			}
		}

		orders = append(orders, o)
	}

	if badDates > 0 {
		warnings = append(warnings, Warning{
			Field:   model.FieldOrderDate,
			Message: fmt.Sprintf("%d 'order_date' values could not be parsed and are treated as missing", badDates),
		})
	}
	if badTotals > 0 {
		warnings = append(warnings, Warning{
			Field:   model.FieldTotal,
			Message: fmt.Sprintf("%d 'total' values are not valid 32-bit numbers and are treated as missing", badTotals),
		})
	}
	if badAges > 0 {
		warnings = append(warnings, Warning{
			Field:   model.FieldAge,
			Message: fmt.Sprintf("%d 'age' values are outside %d..%d or not integers and are treated as missing", badAges, math.MinInt8, math.MaxInt8),
		})
	}

	return model.NewTable(raw.name, model.NewFieldSet(present...), orders, warnings)
}

// call applies an optional accessor.
func call(get func(record) string, r record) string {
	if get == nil {
		return ""
	}
	return get(r)
}

// narrowFloat32 parses a total and checks that it fits a float32.
func narrowFloat32(value string) (float32, bool) {
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxFloat32 {
		return 0, false
	}
	return float32(v), true
}

// narrowInt8 parses an age and checks the int8 range before narrowing.
// Integral floats such as "42.0" are accepted.
func narrowInt8(value string) (int8, bool) {
	if value == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || v != math.Trunc(v) {
		return 0, false
	}
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, false
	}
	return int8(v), true
}
