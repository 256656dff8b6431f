package csvingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// parsePeople parses the shared people fixture
func parsePeople(t *testing.T, rt *Runtime) arrow.Table {
	t.Helper()
	path := writeTestFile(t, "people.csv", peopleCSV)
	tbl, err := rt.NewParallelIngestor(NewParseOptions(rt.Config())).Parse(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(tbl.Release)
	return tbl
}

func TestDumpTable_DelimitedRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		format      OutputFormat
		compression CompressionType
		wantExt     string
		delimiter   string
	}{
		{name: "csv", format: OutputFormatCSV, compression: CompressionNone, wantExt: ".csv", delimiter: ","},
		{name: "tsv", format: OutputFormatTSV, compression: CompressionNone, wantExt: ".tsv", delimiter: "\t"},
		{name: "csv gzip", format: OutputFormatCSV, compression: CompressionGZ, wantExt: ".csv.gz", delimiter: ","},
		{name: "csv zstd", format: OutputFormatCSV, compression: CompressionZSTD, wantExt: ".csv.zst", delimiter: ","},
		{name: "tsv xz", format: OutputFormatTSV, compression: CompressionXZ, wantExt: ".tsv.xz", delimiter: "\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rt := newTestRuntime(t)
			tbl := parsePeople(t, rt)
			outDir := filepath.Join(t.TempDir(), "nested", "out")

			opts := NewDumpOptions().WithFormat(tt.format).WithCompression(tt.compression)
			path, err := DumpTable(tbl, outDir, "people", opts)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(outDir, "people"+tt.wantExt), path)

			csvOpts := NewCSVOptions()
			csvOpts.Delimiter = tt.delimiter
			result, err := rt.ParseCSVWithOptions(context.Background(), path, csvOpts)
			require.NoError(t, err)

			original := NewTableResult(tbl)
			assert.Equal(t, original.Columns, result.Columns)
			assert.Equal(t, original.Data, result.Data)
		})
	}
}

func TestDumpTable_Parquet(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	tbl := parsePeople(t, rt)

	path, err := DumpTable(tbl, t.TempDir(), "people", NewDumpOptions().WithFormat(OutputFormatParquet))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "people.parquet"))

	pf, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)

	readBack, err := reader.ReadTable(context.Background())
	require.NoError(t, err)
	defer readBack.Release()

	assert.Equal(t, tbl.NumRows(), readBack.NumRows())
	assert.Equal(t, NewTableResult(tbl).Data, NewTableResult(readBack).Data)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, readBack.Schema().Field(1).Type)
}

func TestDumpTable_XLSX(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	tbl := parsePeople(t, rt)

	path, err := DumpTable(tbl, t.TempDir(), "people", NewDumpOptions().WithFormat(OutputFormatXLSX))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"name", "age", "salary", "active"}, rows[0])
	assert.Equal(t, "Alice", rows[1][0])
	assert.Equal(t, "30", rows[1][1])
	assert.Equal(t, "50000.5", rows[1][2])
	assert.Equal(t, "Diana", rows[4][0])
}

func TestDumpTable_Errors(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	tbl := parsePeople(t, rt)

	t.Run("bzip2 output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := DumpTable(tbl, dir, "people", NewDumpOptions().WithCompression(CompressionBZ2))
		require.ErrorIs(t, err, ErrValidation)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("nil table", func(t *testing.T) {
		t.Parallel()

		_, err := DumpTable(nil, t.TempDir(), "people", NewDumpOptions())
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("output directory is a file", func(t *testing.T) {
		t.Parallel()

		blocker := writeTestFile(t, "blocker", "x")
		_, err := DumpTable(tbl, blocker, "people", NewDumpOptions())
		require.ErrorIs(t, err, ErrIO)
	})
}

func TestDumpTable_SanitizesName(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	tbl := parsePeople(t, rt)
	dir := t.TempDir()

	path, err := DumpTable(tbl, dir, "../escape me", NewDumpOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "__escape_me.csv"), path)
}
