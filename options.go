package csvingest

import (
	"fmt"

	"github.com/nao1215/csvingest/domain/model"
	"github.com/nao1215/csvingest/engine"
)

// Streaming defaults
const (
	// DefaultStreamingChunkSize is the default number of rows per delivered batch
	DefaultStreamingChunkSize = 100_000
	// DefaultStreamingMemoryLimitMB is the default streaming decision threshold
	DefaultStreamingMemoryLimitMB = 1024
	// StreamingThresholdMB is the file size from which ParseStreaming switches to low-memory mode
	StreamingThresholdMB = 100
	// DefaultSchemaSampleRows is the default number of rows sampled for type inference
	DefaultSchemaSampleRows = engine.DefaultInferSchemaRows
)

// ParseOptions configures a full parse.
//
// Options are derived from a configuration snapshot by NewParseOptions and
// changed only through the With* methods, which return modified copies.
//
// Example:
//
//	opts := csvingest.NewParseOptions(rt.Config()).
//		WithDelimiter('\t').
//		WithSchemaSampleRows(0)
type ParseOptions struct {
	// HasHeader reports whether the first record holds column names
	HasHeader bool
	// Delimiter is the single-byte field separator
	Delimiter rune
	// QuoteChar is the quote character; only '"' is supported
	QuoteChar rune
	// ChunkSize is the number of rows the engine converts per unit of work
	ChunkSize int
	// SchemaSampleRows is the number of rows sampled for inference; 0 samples every row
	SchemaSampleRows int
}

// NewParseOptions creates options from a configuration snapshot
func NewParseOptions(cfg model.ProcessConfig) ParseOptions {
	return ParseOptions{
		HasHeader:        true,
		Delimiter:        ',',
		QuoteChar:        '"',
		ChunkSize:        cfg.ChunkSize,
		SchemaSampleRows: DefaultSchemaSampleRows,
	}
}

// WithHeader sets whether the first record is a header
func (o ParseOptions) WithHeader(hasHeader bool) ParseOptions {
	o.HasHeader = hasHeader
	return o
}

// WithDelimiter sets the field separator
func (o ParseOptions) WithDelimiter(delimiter rune) ParseOptions {
	o.Delimiter = delimiter
	return o
}

// WithQuoteChar sets the quote character
func (o ParseOptions) WithQuoteChar(quote rune) ParseOptions {
	o.QuoteChar = quote
	return o
}

// WithChunkSize sets the engine chunk size
func (o ParseOptions) WithChunkSize(size int) ParseOptions {
	o.ChunkSize = size
	return o
}

// WithSchemaSampleRows sets the inference sample; 0 samples every row
func (o ParseOptions) WithSchemaSampleRows(rows int) ParseOptions {
	o.SchemaSampleRows = rows
	return o
}

// Validate checks every field
func (o ParseOptions) Validate() error {
	if _, err := validateDelimiterRune(o.Delimiter); err != nil {
		return err
	}
	if err := validateQuote(o.QuoteChar); err != nil {
		return err
	}
	if o.ChunkSize <= 0 {
		return &ValidationError{Field: "chunk_size", Reason: fmt.Sprintf("must be greater than 0, got %d", o.ChunkSize)}
	}
	if o.SchemaSampleRows < 0 {
		return &ValidationError{Field: "schema_sample_rows", Reason: fmt.Sprintf("must not be negative, got %d", o.SchemaSampleRows)}
	}
	return nil
}

// loadOptions translates the options for the engine
func (o ParseOptions) loadOptions(lowMemory bool) engine.LoadOptions {
	return engine.LoadOptions{
		HasHeader:       o.HasHeader,
		Delimiter:       o.Delimiter,
		QuoteChar:       o.QuoteChar,
		ChunkSize:       o.ChunkSize,
		InferSchemaRows: o.SchemaSampleRows,
		LowMemory:       lowMemory,
	}
}

// StreamingOptions configures batch sizing and the streaming decision.
// It is independent of the Runtime's ProcessConfig.
type StreamingOptions struct {
	// ChunkSize is the number of rows per delivered batch
	ChunkSize int
	// MemoryLimitMB is the threshold used by ShouldUseStreaming
	MemoryLimitMB int
	// HasHeader reports whether the first record holds column names
	HasHeader bool
	// Delimiter is the single-byte field separator
	Delimiter rune
}

// DefaultStreamingOptions returns options with 100000-row batches and a 1024 MB threshold
func DefaultStreamingOptions() StreamingOptions {
	return StreamingOptions{
		ChunkSize:     DefaultStreamingChunkSize,
		MemoryLimitMB: DefaultStreamingMemoryLimitMB,
		HasHeader:     true,
		Delimiter:     ',',
	}
}

// WithChunkSize sets the batch size
func (o StreamingOptions) WithChunkSize(size int) StreamingOptions {
	o.ChunkSize = size
	return o
}

// WithMemoryLimitMB sets the streaming threshold
func (o StreamingOptions) WithMemoryLimitMB(limit int) StreamingOptions {
	o.MemoryLimitMB = limit
	return o
}

// WithHeader sets whether the first record is a header
func (o StreamingOptions) WithHeader(hasHeader bool) StreamingOptions {
	o.HasHeader = hasHeader
	return o
}

// WithDelimiter sets the field separator
func (o StreamingOptions) WithDelimiter(delimiter rune) StreamingOptions {
	o.Delimiter = delimiter
	return o
}

// Validate checks every field
func (o StreamingOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return &ValidationError{Field: "chunk_size", Reason: fmt.Sprintf("must be greater than 0, got %d", o.ChunkSize)}
	}
	if o.MemoryLimitMB <= 0 {
		return &ValidationError{Field: "memory_limit_mb", Reason: fmt.Sprintf("must be greater than 0, got %d", o.MemoryLimitMB)}
	}
	_, err := validateDelimiterRune(o.Delimiter)
	return err
}

// parseOptions returns the full-parse options a small streaming input is delegated with
func (o StreamingOptions) parseOptions() ParseOptions {
	return ParseOptions{
		HasHeader:        o.HasHeader,
		Delimiter:        o.Delimiter,
		QuoteChar:        '"',
		ChunkSize:        o.ChunkSize,
		SchemaSampleRows: DefaultSchemaSampleRows,
	}
}
