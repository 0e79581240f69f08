package model

import (
	"testing"
)

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected FileType
	}{
		{
			name:     "CSV file",
			path:     "orders.csv",
			expected: FileTypeCSV,
		},
		{
			name:     "Upper case XLSX file",
			path:     "ORDERS.XLSX",
			expected: FileTypeXLSX,
		},
		{
			name:     "Compressed TSV file",
			path:     "orders.tsv.bz2",
			expected: FileTypeTSV,
		},
		{
			name:     "Compressed LTSV file",
			path:     "orders.ltsv.xz",
			expected: FileTypeLTSV,
		},
		{
			name:     "Zstd compressed Parquet file",
			path:     "orders.parquet.zst",
			expected: FileTypeParquet,
		},
		{
			name:     "Legacy Excel file",
			path:     "orders.xls",
			expected: FileTypeUnsupported,
		},
		{
			name:     "No extension",
			path:     "orders",
			expected: FileTypeUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DetectFileType(tt.path); got != tt.expected {
				t.Errorf("DetectFileType(%q) = %v, want %v", tt.path, got, tt.expected)
			}
			if got := IsSupportedFile(tt.path); got != (tt.expected != FileTypeUnsupported) {
				t.Errorf("IsSupportedFile(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestDetectCompressionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected CompressionType
		stripped string
	}{
		{path: "a.csv", expected: CompressionNone, stripped: "a.csv"},
		{path: "a.csv.gz", expected: CompressionGZ, stripped: "a.csv"},
		{path: "a.csv.GZ", expected: CompressionGZ, stripped: "a.csv"},
		{path: "a.tsv.bz2", expected: CompressionBZ2, stripped: "a.tsv"},
		{path: "a.ltsv.xz", expected: CompressionXZ, stripped: "a.ltsv"},
		{path: "a.xlsx.zst", expected: CompressionZSTD, stripped: "a.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			if got := DetectCompressionType(tt.path); got != tt.expected {
				t.Errorf("DetectCompressionType(%q) = %v, want %v", tt.path, got, tt.expected)
			}
			if got := RemoveCompressionExtension(tt.path); got != tt.stripped {
				t.Errorf("RemoveCompressionExtension(%q) = %q, want %q", tt.path, got, tt.stripped)
			}
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected CompressionType
		ok       bool
	}{
		{input: "", expected: CompressionNone, ok: true},
		{input: "none", expected: CompressionNone, ok: true},
		{input: "gzip", expected: CompressionGZ, ok: true},
		{input: ".zst", expected: CompressionZSTD, ok: true},
		{input: "XZ", expected: CompressionXZ, ok: true},
		{input: "rar", expected: CompressionNone, ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseCompressionType(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ParseCompressionType(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestExportOptions_FileExtension(t *testing.T) {
	t.Parallel()

	opts := NewExportOptions()
	if got := opts.FileExtension(); got != ".csv" {
		t.Errorf("expected .csv, got %s", got)
	}

	opts = opts.WithFormat(FileTypeParquet).WithCompression(CompressionZSTD)
	if got := opts.FileExtension(); got != ".parquet.zst" {
		t.Errorf("expected .parquet.zst, got %s", got)
	}
}
