package csvingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/csvingest/domain/model"
	"github.com/xuri/excelize/v2"
)

const (
	// dumpReaderChunkRows is the record size used when iterating a table for output
	dumpReaderChunkRows = 8192
	// parquetRowGroupRows is the maximum number of rows in one Parquet row group
	parquetRowGroupRows = 64 * 1024
	// xlsxSheetName is the worksheet a table is written to
	xlsxSheetName = "Sheet1"
)

// DumpTable writes tbl to outputDir as name plus the extension of opts and
// returns the written path. The directory is created when missing.
//
// Example:
//
//	path, err := csvingest.DumpTable(tbl, "./out", "sales",
//		csvingest.NewDumpOptions().
//			WithFormat(csvingest.OutputFormatParquet).
//			WithCompression(csvingest.CompressionZSTD))
func DumpTable(tbl arrow.Table, outputDir, name string, opts DumpOptions) (string, error) {
	ectx := NewErrorContext("dump", outputDir)
	if tbl == nil {
		return "", ectx.Error(&ValidationError{Field: "table", Reason: "table cannot be nil"})
	}
	if opts.Compression == model.CompressionBZ2 {
		return "", ectx.Error(&ValidationError{Field: "compression", Reason: errBZ2WriteUnsupported.Error()})
	}

	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return "", ectx.Error(fmt.Errorf("%w: failed to create output directory: %w", ErrIO, err))
	}

	path := filepath.Join(outputDir, sanitizeIdentifier(name)+opts.FileExtension())
	ectx.FilePath = path

	writer, cleanup, err := createFileWriter(path, opts.Compression)
	if err != nil {
		return "", ectx.Error(fmt.Errorf("%w: %w", ErrIO, err))
	}

	writeErr := writeTable(writer, tbl, opts.Format)
	if closeErr := cleanup(); closeErr != nil && writeErr == nil {
		writeErr = fmt.Errorf("%w: %w", ErrIO, closeErr)
	}
	if writeErr != nil {
		_ = os.Remove(path)
		return "", ectx.WithDetails(opts.Format.String()).Error(writeErr)
	}
	return path, nil
}

// writeTable encodes tbl in format
func writeTable(w io.Writer, tbl arrow.Table, format model.OutputFormat) error {
	switch format {
	case model.OutputFormatCSV:
		return writeDelimited(w, tbl, ',')
	case model.OutputFormatTSV:
		return writeDelimited(w, tbl, '\t')
	case model.OutputFormatParquet:
		return writeParquet(w, tbl)
	case model.OutputFormatXLSX:
		return writeXLSX(w, tbl)
	default:
		return &ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported output format %v", format)}
	}
}

// writeDelimited writes a header and one line per row. Nulls are empty fields.
func writeDelimited(w io.Writer, tbl arrow.Table, delimiter rune) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter

	header := make([]string, tbl.NumCols())
	for i, field := range tbl.Schema().Fields() {
		header[i] = field.Name
	}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	reader := array.NewTableReader(tbl, dumpReaderChunkRows)
	defer reader.Release()

	line := make([]string, tbl.NumCols())
	for reader.Next() {
		record := reader.Record()
		for row := 0; row < int(record.NumRows()); row++ {
			for col := range line {
				arr := record.Column(col)
				if arr.IsNull(row) {
					line[col] = ""
					continue
				}
				line[col] = arr.ValueStr(row)
			}
			if err := csvWriter.Write(line); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// writeParquet writes tbl as a snappy-compressed Parquet file
func writeParquet(w io.Writer, tbl arrow.Table) error {
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// pqarrow closes a sink that implements io.Closer; the caller owns w
	sink := struct{ io.Writer }{w}
	if err := pqarrow.WriteTable(tbl, sink, parquetRowGroupRows, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}

// writeXLSX writes tbl into the first worksheet of a new workbook
func writeXLSX(w io.Writer, tbl arrow.Table) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close() // Ignore close error; the workbook is already written
	}()

	sw, err := f.NewStreamWriter(xlsxSheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]any, tbl.NumCols())
	for i, field := range tbl.Schema().Fields() {
		header[i] = field.Name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	reader := array.NewTableReader(tbl, dumpReaderChunkRows)
	defer reader.Release()

	rowNum := 2
	for reader.Next() {
		record := reader.Record()
		for row := 0; row < int(record.NumRows()); row++ {
			cells := make([]any, tbl.NumCols())
			for col := range cells {
				cells[col] = cellValue(record.Column(col), row)
			}
			cell, err := excelize.CoordinatesToCellName(1, rowNum)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, cells); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush worksheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue returns the spreadsheet value of one cell; nulls are empty cells
func cellValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	default:
		return arr.ValueStr(i)
	}
}
