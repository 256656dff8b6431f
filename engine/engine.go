package engine

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/nao1215/csvingest/domain/model"
)

const (
	// DefaultInferSchemaRows is the default number of rows sampled for type inference
	DefaultInferSchemaRows = 1000
	// defaultChunkSize is used when LoadOptions.ChunkSize is not positive
	defaultChunkSize = 100_000
	// maxInitialChunkCapacity caps the pre-allocated row slice of a chunk
	maxInitialChunkCapacity = 1024
	// generatedColumnPrefix names columns of headerless files
	generatedColumnPrefix = "column_"
)

// LoadOptions controls how a delimited file is parsed
type LoadOptions struct {
	// HasHeader reports whether the first record holds column names
	HasHeader bool
	// Delimiter is the field separator; it must be a single byte
	Delimiter rune
	// QuoteChar is the quote character; only '"' is supported
	QuoteChar rune
	// ChunkSize is the number of rows converted into one Arrow record
	ChunkSize int
	// InferSchemaRows is the number of rows sampled for type inference; 0 samples every row
	InferSchemaRows int
	// LowMemory converts chunks one at a time on the calling goroutine
	LowMemory bool
}

// DefaultLoadOptions returns options for a comma separated file with a header
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		HasHeader:       true,
		Delimiter:       ',',
		QuoteChar:       '"',
		ChunkSize:       defaultChunkSize,
		InferSchemaRows: DefaultInferSchemaRows,
	}
}

// validate checks options the tokenizer cannot honour
func (o LoadOptions) validate() error {
	if o.QuoteChar != '"' {
		return fmt.Errorf("%w: got %q", ErrUnsupportedQuote, o.QuoteChar)
	}
	if o.Delimiter >= utf8.RuneSelf || o.Delimiter == '"' || o.Delimiter == '\r' || o.Delimiter == '\n' || o.Delimiter == 0 {
		return fmt.Errorf("engine: invalid delimiter %q", o.Delimiter)
	}
	if o.InferSchemaRows < 0 {
		return fmt.Errorf("engine: infer schema rows must not be negative, got %d", o.InferSchemaRows)
	}
	return nil
}

// chunkSize returns the effective chunk size
func (o LoadOptions) chunkSize() int {
	if o.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return o.ChunkSize
}

// Engine loads delimited files into Arrow tables.
//
// Thread Safety: an Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	pool  *Pool
	alloc memory.Allocator
}

// Option configures an Engine
type Option func(*Engine)

// WithAllocator sets the Arrow allocator used for every table the engine builds
func WithAllocator(alloc memory.Allocator) Option {
	return func(e *Engine) {
		if alloc != nil {
			e.alloc = alloc
		}
	}
}

// New creates an engine converting chunks on pool. A nil pool converts sequentially.
func New(pool *Pool, opts ...Option) *Engine {
	if pool == nil {
		pool = &Pool{size: 1}
	}
	e := &Engine{
		pool:  pool,
		alloc: memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pool returns the pool the engine converts chunks on
func (e *Engine) Pool() *Pool {
	return e.pool
}

// Load parses the file at path into a table. The caller owns the returned
// table and must Release it.
func (e *Engine) Load(ctx context.Context, path string, opts LoadOptions) (arrow.Table, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	reader, cleanup, err := openSource(path, opts.LowMemory)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cleanup() // Ignore close error on a read-only source
	}()

	src := newRowSource(reader, opts)
	header, err := src.readHeaderAndSample()
	if err != nil {
		return nil, err
	}

	conv := newChunkConverter(e.alloc, inferSchema(header, src.buffered))

	var records []arrow.Record
	if opts.LowMemory || e.pool.Size() == 1 {
		records, err = e.convertSequential(ctx, src, conv)
	} else {
		records, err = e.convertParallel(ctx, src, conv)
	}
	if err != nil {
		return nil, err
	}

	table := array.NewTableFromRecords(conv.schema, records)
	releaseRecords(records)
	return table, nil
}

// InferSchema reads the header and the sample rows only and returns the inferred schema
func (e *Engine) InferSchema(_ context.Context, path string, opts LoadOptions) (*arrow.Schema, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	reader, cleanup, err := openSource(path, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cleanup() // Ignore close error on a read-only source
	}()

	src := newRowSource(reader, opts)
	header, err := src.readHeaderAndSample()
	if err != nil {
		return nil, err
	}
	return toArrowSchema(inferSchema(header, src.buffered)), nil
}

// convertSequential converts chunks one by one, keeping a single raw chunk alive
func (e *Engine) convertSequential(ctx context.Context, src *rowSource, conv *chunkConverter) ([]arrow.Record, error) {
	var records []arrow.Record
	for {
		if err := ctx.Err(); err != nil {
			releaseRecords(records)
			return nil, err
		}

		chunk, err := src.nextChunk()
		if err != nil {
			releaseRecords(records)
			return nil, err
		}
		if len(chunk.rows) == 0 {
			return records, nil
		}

		record, err := conv.convert(chunk)
		if err != nil {
			releaseRecords(records)
			return nil, err
		}
		records = append(records, record)
	}
}

// convertParallel fans chunks out to the pool. Reading blocks while every
// worker is busy, so at most pool.Size() raw chunks are in flight.
func (e *Engine) convertParallel(ctx context.Context, src *rowSource, conv *chunkConverter) ([]arrow.Record, error) {
	g, gctx := e.pool.group(ctx)

	var (
		slots   []*arrow.Record
		readErr error
	)
	for gctx.Err() == nil {
		chunk, err := src.nextChunk()
		if err != nil {
			readErr = err
			break
		}
		if len(chunk.rows) == 0 {
			break
		}

		slot := new(arrow.Record)
		slots = append(slots, slot)
		g.Go(func() error {
			record, err := conv.convert(chunk)
			if err != nil {
				return err
			}
			*slot = record
			return nil
		})
	}
	waitErr := g.Wait()

	records := make([]arrow.Record, 0, len(slots))
	for _, slot := range slots {
		if *slot != nil {
			records = append(records, *slot)
		}
	}

	err := waitErr
	if err == nil {
		err = readErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		releaseRecords(records)
		return nil, err
	}
	return records, nil
}

// releaseRecords releases every record in records
func releaseRecords(records []arrow.Record) {
	for _, record := range records {
		record.Release()
	}
}

// rowSource yields raw rows, first from the inference sample and then from the reader
type rowSource struct {
	reader    *csv.Reader
	opts      LoadOptions
	buffered  [][]string
	eof       bool
	nextRow   int
	chunkSize int
}

// newRowSource creates a row source over an encoding/csv reader
func newRowSource(reader io.Reader, opts LoadOptions) *rowSource {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = opts.Delimiter
	return &rowSource{
		reader:    csvReader,
		opts:      opts,
		nextRow:   1,
		chunkSize: opts.chunkSize(),
	}
}

// readHeaderAndSample returns the column names and buffers the inference sample
func (s *rowSource) readHeaderAndSample() ([]string, error) {
	first, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var header []string
	if s.opts.HasHeader {
		if err := validateColumnNames(first); err != nil {
			return nil, err
		}
		header = first
	} else {
		header = generatedHeader(len(first))
		s.buffered = append(s.buffered, first)
	}

	limit := s.opts.InferSchemaRows
	for limit == 0 || len(s.buffered) < limit {
		row, err := s.read()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		s.buffered = append(s.buffered, row)
	}
	return header, nil
}

// read returns the next record from the reader, or nil at end of input
func (s *rowSource) read() ([]string, error) {
	if s.eof {
		return nil, nil
	}
	row, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.eof = true
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV record: %w", err)
	}
	return row, nil
}

// nextChunk returns up to chunkSize rows; an empty chunk means end of input
func (s *rowSource) nextChunk() (rowChunk, error) {
	rows := make([][]string, 0, min(s.chunkSize, maxInitialChunkCapacity))
	for len(rows) < s.chunkSize {
		if len(s.buffered) > 0 {
			n := min(s.chunkSize-len(rows), len(s.buffered))
			rows = append(rows, s.buffered[:n]...)
			s.buffered = s.buffered[n:]
			continue
		}

		row, err := s.read()
		if err != nil {
			return rowChunk{}, err
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	chunk := rowChunk{firstRow: s.nextRow, rows: rows}
	s.nextRow += len(rows)
	return chunk, nil
}

// generatedHeader names the columns of a headerless file column_1..column_n
func generatedHeader(n int) []string {
	header := make([]string, n)
	for i := range header {
		header[i] = generatedColumnPrefix + strconv.Itoa(i+1)
	}
	return header
}

// validateColumnNames checks for duplicate column names and returns error if found.
// Column name comparison is case-sensitive after trimming whitespace.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool, len(columns))
	for _, col := range columns {
		trimmedCol := strings.TrimSpace(col)
		if columnsSeen[trimmedCol] {
			return fmt.Errorf("%w: %s", model.ErrDuplicateColumnName, col)
		}
		columnsSeen[trimmedCol] = true
	}
	return nil
}
