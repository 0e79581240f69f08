package salesdash

import (
	"context"
	"embed"
	"io"

	"github.com/nao1215/salesdash/domain/model"
)

// Domain types re-exported so callers only import the root package.
type (
	// Table is a normalized, immutable set of orders.
	Table = model.Table
	// Order is one normalized sales row.
	Order = model.Order
	// Field is a column name of the order table.
	Field = model.Field
	// FieldSet records the fields available after load.
	FieldSet = model.FieldSet
	// Warning is a non-fatal schema problem found while loading.
	Warning = model.Warning
	// FileType is an input or export format.
	FileType = model.FileType
	// CompressionType is a compression codec applied to a file.
	CompressionType = model.CompressionType
	// ExportOptions selects the export format and compression.
	ExportOptions = model.ExportOptions
)

// Supported file formats
const (
	FileTypeCSV     = model.FileTypeCSV
	FileTypeTSV     = model.FileTypeTSV
	FileTypeLTSV    = model.FileTypeLTSV
	FileTypeParquet = model.FileTypeParquet
	FileTypeXLSX    = model.FileTypeXLSX
)

// Supported compression codecs
const (
	CompressionNone = model.CompressionNone
	CompressionGZ   = model.CompressionGZ
	CompressionBZ2  = model.CompressionBZ2
	CompressionXZ   = model.CompressionXZ
	CompressionZSTD = model.CompressionZSTD
)

// NewExportOptions returns CSV without compression.
func NewExportOptions() ExportOptions {
	return model.NewExportOptions()
}

//go:embed data/orders.csv
var defaultDataset embed.FS

// defaultDatasetName is the embedded sample used when no file is supplied.
const defaultDatasetName = "data/orders.csv"

// defaultLoader backs the package-level helpers.
var defaultLoader = NewLoader()

// Load reads an order file with the default Loader.
//
// Example usage:
//
//	table, err := salesdash.Load(ctx, "orders.csv.gz")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, w := range table.Warnings() {
//		log.Println(w)
//	}
//	kpi := salesdash.Summarize(table)
//	fmt.Println(kpi.FormattedSales())
func Load(ctx context.Context, path string) (*Table, error) {
	return defaultLoader.Load(ctx, path)
}

// LoadReader reads an uploaded order stream with the default Loader.
func LoadReader(ctx context.Context, reader io.Reader, fileName string) (*Table, error) {
	return defaultLoader.LoadReader(ctx, reader, fileName)
}

// LoadDefault reads the embedded sample orders.
func LoadDefault(ctx context.Context) (*Table, error) {
	return defaultLoader.LoadDefault(ctx)
}
