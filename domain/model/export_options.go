package model

// ExportOptions configures how a table is written to a file.
type ExportOptions struct {
	// Format specifies the output file format
	Format FileType
	// Compression specifies the compression type
	Compression CompressionType
}

// NewExportOptions creates default export options (CSV, no compression)
func NewExportOptions() ExportOptions {
	return ExportOptions{
		Format:      FileTypeCSV,
		Compression: CompressionNone,
	}
}

// WithFormat sets the output file format
func (o ExportOptions) WithFormat(format FileType) ExportOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to output files
func (o ExportOptions) WithCompression(compression CompressionType) ExportOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the complete file extension including compression
func (o ExportOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
