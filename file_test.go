package salesdash

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/salesdash/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		fileType    FileType
		compression CompressionType
		supported   bool
	}{
		{name: "CSV file", path: "orders.csv", fileType: FileTypeCSV, compression: CompressionNone, supported: true},
		{name: "Compressed TSV file", path: "orders.tsv.bz2", fileType: FileTypeTSV, compression: CompressionBZ2, supported: true},
		{name: "Compressed LTSV file", path: "orders.ltsv.xz", fileType: FileTypeLTSV, compression: CompressionXZ, supported: true},
		{name: "XLSX file", path: "Orders.XLSX", fileType: FileTypeXLSX, compression: CompressionNone, supported: true},
		{name: "Parquet zstd file", path: "orders.parquet.zst", fileType: FileTypeParquet, compression: CompressionZSTD, supported: true},
		{name: "Unsupported file", path: "orders.json", fileType: model.FileTypeUnsupported, compression: CompressionNone, supported: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFile(tt.path)
			assert.Equal(t, tt.fileType, f.fileType)
			assert.Equal(t, tt.compression, f.compression)
			assert.Equal(t, tt.supported, f.isSupported())
		})
	}
}

func TestFile_ParseCSV(t *testing.T) {
	t.Parallel()

	t.Run("header with BOM and short rows", func(t *testing.T) {
		t.Parallel()

		data := "\ufefforder_id, total ,State\n1,10.5,CA\n2,20\n"
		raw, err := newFile("orders.csv").parse(context.Background(), strings.NewReader(data))
		require.NoError(t, err)

		assert.Equal(t, "orders", raw.name)
		assert.Equal(t, header{"order_id", "total", "State"}, raw.header)
		require.Len(t, raw.records, 2)

		state, ok := raw.column("State")
		require.True(t, ok)
		assert.Equal(t, "CA", state(raw.records[0]))
		assert.Equal(t, "", state(raw.records[1]))
	})

	t.Run("duplicate column names", func(t *testing.T) {
		t.Parallel()

		_, err := newFile("orders.csv").parse(context.Background(), strings.NewReader("total,total\n1,2\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrDuplicateColumnName))
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		_, err := newFile("orders.csv").parse(context.Background(), strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyData)
	})

	t.Run("gzip compressed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write([]byte("order_id,total\n1,10\n"))
		require.NoError(t, err)
		require.NoError(t, gz.Close())

		raw, err := newFile("orders.csv.gz").parse(context.Background(), &buf)
		require.NoError(t, err)
		assert.Equal(t, "orders", raw.name)
		assert.Len(t, raw.records, 1)
	})
}

func TestFile_ParseTSV(t *testing.T) {
	t.Parallel()

	raw, err := newFile("orders.tsv").parse(context.Background(), strings.NewReader("order_id\tcity\n1\tSan \"Diego\"\n"))
	require.NoError(t, err)
	city, ok := raw.column("city")
	require.True(t, ok)
	assert.Equal(t, `San "Diego"`, city(raw.records[0]))
}

func TestFile_ParseLTSV(t *testing.T) {
	t.Parallel()

	data := "order_id:1\ttotal:10.5\n\norder_id:2\tcategory:Appliances\n"
	raw, err := newFile("orders.ltsv").parse(context.Background(), strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, header{"order_id", "total", "category"}, raw.header)
	require.Len(t, raw.records, 2)
	assert.Equal(t, record{"1", "10.5", ""}, raw.records[0])
	assert.Equal(t, record{"2", "", "Appliances"}, raw.records[1])
}

func TestFile_ParseXLSX(t *testing.T) {
	t.Parallel()

	wb := excelize.NewFile()
	defer wb.Close()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]any{"order_id", "order_date", "total"}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]any{"1", 45292, 12.5}))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A3", &[]any{"2"}))
	_, err := wb.NewSheet("Ignored")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	raw, err := newFile("orders.xlsx").parse(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, FileTypeXLSX, raw.fileType)
	assert.Equal(t, header{"order_id", "order_date", "total"}, raw.header)
	require.Len(t, raw.records, 2)
	assert.Equal(t, record{"1", "45292", "12.5"}, raw.records[0])
	assert.Equal(t, record{"2", "", ""}, raw.records[1])
}

func TestFile_ParseParquet(t *testing.T) {
	t.Parallel()

	table := sampleTable(t)
	var buf bytes.Buffer
	require.NoError(t, Export(context.Background(), &buf, table, NewExportOptions().WithFormat(FileTypeParquet)))

	raw, err := newFile("orders.parquet").parse(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, headerRow(table.Fields().Fields()), []string(raw.header))
	assert.Len(t, raw.records, table.Len())
}

func TestFile_ParseUnsupported(t *testing.T) {
	t.Parallel()

	_, err := newFile("orders.json").parse(context.Background(), strings.NewReader("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
