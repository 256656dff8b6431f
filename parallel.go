package csvingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/nao1215/csvingest/domain/model"
	"github.com/nao1215/csvingest/engine"
)

// countLinesBufferSize is the read buffer used by CountLines
const countLinesBufferSize = 64 * 1024

// ParallelIngestor parses whole files into tables, converting chunks on the
// runtime's worker pool
type ParallelIngestor struct {
	rt   *Runtime
	opts ParseOptions
}

// NewParallelIngestor creates an ingestor parsing with opts
func (r *Runtime) NewParallelIngestor(opts ParseOptions) *ParallelIngestor {
	return &ParallelIngestor{rt: r, opts: opts}
}

// Options returns the parse options
func (p *ParallelIngestor) Options() ParseOptions {
	return p.opts
}

// Parse reads the whole file into a table. The file is rejected with a
// *MemoryLimitError before any read when its estimated footprint is above
// the runtime's memory ceiling. The caller must Release the table.
func (p *ParallelIngestor) Parse(ctx context.Context, path string) (arrow.Table, error) {
	in := p.rt.startIngestion(ctx, "parse", path)
	tbl, err := p.parse(in, path, p.opts)
	in.end(numRows(tbl), err)
	return tbl, err
}

// ParseWithInference is Parse with the inference sample set to sampleSize rows
func (p *ParallelIngestor) ParseWithInference(ctx context.Context, path string, sampleSize int) (arrow.Table, error) {
	in := p.rt.startIngestion(ctx, "parse_with_inference", path)
	tbl, err := p.parse(in, path, p.opts.WithSchemaSampleRows(sampleSize))
	in.end(numRows(tbl), err)
	return tbl, err
}

// InferSchema reads only the header and the sample rows and returns the inferred schema
func (p *ParallelIngestor) InferSchema(ctx context.Context, path string) (model.Schema, error) {
	in := p.rt.startIngestion(ctx, "infer_schema", path)
	in.setMode(modeInspect)
	schema, err := p.inferSchema(in, path)
	in.end(0, err)
	return schema, err
}

// CountLines counts the physical lines of the file, header included.
// A last line without a trailing newline is counted.
func (p *ParallelIngestor) CountLines(path string) (int64, error) {
	ectx := NewErrorContext("count lines", path)
	if _, err := statInput(path); err != nil {
		return 0, ectx.Error(err)
	}

	reader, cleanup, err := engine.Open(path)
	if err != nil {
		return 0, ectx.Error(engineError(err))
	}
	defer func() {
		_ = cleanup() // Ignore close error on a read-only source
	}()

	n, err := countLines(reader)
	if err != nil {
		return 0, ectx.Error(fmt.Errorf("%w: %w", ErrIO, err))
	}
	return n, nil
}

// parse runs the pre-flight checks and the engine for one call
func (p *ParallelIngestor) parse(in *ingestion, path string, opts ParseOptions) (arrow.Table, error) {
	ectx := NewErrorContext("parse", path)
	if err := opts.Validate(); err != nil {
		return nil, ectx.Error(err)
	}
	info, err := statInput(path)
	if err != nil {
		return nil, ectx.Error(err)
	}

	cfg := p.rt.Config()
	if err := p.rt.preflight(in, path, info.Size(), cfg.MemoryLimitMB); err != nil {
		return nil, ectx.Error(err)
	}

	eng, err := p.rt.engineFor()
	if err != nil {
		return nil, ectx.Error(err)
	}

	in.setMode(modeParallel)
	tbl, err := eng.Load(in.ctx, path, opts.loadOptions(false))
	if err != nil {
		return nil, ectx.Error(engineError(err))
	}
	p.rt.logHeap(in, cfg.MemoryLimitMB)
	return tbl, nil
}

// inferSchema runs the pre-flight checks and schema inference for one call
func (p *ParallelIngestor) inferSchema(in *ingestion, path string) (model.Schema, error) {
	ectx := NewErrorContext("infer schema", path)
	if err := p.opts.Validate(); err != nil {
		return nil, ectx.Error(err)
	}
	info, err := statInput(path)
	if err != nil {
		return nil, ectx.Error(err)
	}
	if err := p.rt.preflight(in, path, info.Size(), p.rt.Config().MemoryLimitMB); err != nil {
		return nil, ectx.Error(err)
	}

	eng, err := p.rt.engineFor()
	if err != nil {
		return nil, ectx.Error(err)
	}
	schema, err := eng.InferSchema(in.ctx, path, p.opts.loadOptions(true))
	if err != nil {
		return nil, ectx.Error(engineError(err))
	}
	return engine.SchemaFromArrow(schema), nil
}

// countLines counts newline-terminated lines plus a final unterminated one
func countLines(r io.Reader) (int64, error) {
	buf := make([]byte, countLinesBufferSize)
	var (
		count int64
		last  byte
		seen  bool
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			count += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
			seen = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != '\n' {
		count++
	}
	return count, nil
}

// numRows returns the row count of a possibly nil table
func numRows(tbl arrow.Table) int64 {
	if tbl == nil {
		return 0
	}
	return tbl.NumRows()
}
