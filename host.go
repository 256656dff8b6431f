package csvingest

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/nao1215/csvingest/engine"
)

// TableResult is a parsed table in host form, column-major
type TableResult struct {
	Columns    []string `json:"columns"`
	NumRows    int64    `json:"num_rows"`
	NumColumns int      `json:"num_columns"`
	Data       [][]any  `json:"data"`
}

// NewTableResult converts a table into host form
func NewTableResult(tbl arrow.Table) *TableResult {
	schema := engine.SchemaFromArrow(tbl.Schema())
	data := make([][]any, tbl.NumCols())
	for i := range data {
		data[i] = columnValues(tbl.Column(i))
	}
	return &TableResult{
		Columns:    schema.Names(),
		NumRows:    tbl.NumRows(),
		NumColumns: int(tbl.NumCols()),
		Data:       data,
	}
}

// SchemaResult is an inferred schema in host form
type SchemaResult struct {
	Columns    []string `json:"columns"`
	DTypes     []string `json:"dtypes"`
	NumColumns int      `json:"num_columns"`
}

// StreamingRecommendation reports whether a file should be streamed
type StreamingRecommendation struct {
	Recommended       bool  `json:"recommended"`
	EstimatedMemoryMB int64 `json:"estimated_memory_mb"`
	MemoryLimitMB     int64 `json:"memory_limit_mb"`
}

// CSVOptions are the host-facing parse options
type CSVOptions struct {
	// HasHeader reports whether the first record holds column names
	HasHeader bool
	// Delimiter must be exactly one single-byte character
	Delimiter string
	// ChunkSize overrides the configured chunk size when positive
	ChunkSize int
	// InferenceSampleRows overrides the inference sample when positive
	InferenceSampleRows int
}

// NewCSVOptions returns options for a comma separated file with a header
func NewCSVOptions() CSVOptions {
	return CSVOptions{HasHeader: true, Delimiter: ","}
}

// parseOptions validates the host options and converts them
func (o CSVOptions) parseOptions(cfg ProcessConfig) (ParseOptions, error) {
	delimiter, err := validateDelimiter(o.Delimiter)
	if err != nil {
		return ParseOptions{}, err
	}
	if o.ChunkSize < 0 {
		return ParseOptions{}, &ValidationError{Field: "chunk_size", Reason: fmt.Sprintf("must not be negative, got %d", o.ChunkSize)}
	}
	if o.InferenceSampleRows < 0 {
		return ParseOptions{}, &ValidationError{Field: "inference_sample_rows", Reason: fmt.Sprintf("must not be negative, got %d", o.InferenceSampleRows)}
	}

	opts := NewParseOptions(cfg).WithHeader(o.HasHeader).WithDelimiter(delimiter)
	if o.ChunkSize > 0 {
		opts = opts.WithChunkSize(o.ChunkSize)
	}
	if o.InferenceSampleRows > 0 {
		opts = opts.WithSchemaSampleRows(o.InferenceSampleRows)
	}
	return opts, nil
}

// ParseCSV parses a comma separated file with a header using the current configuration
func (r *Runtime) ParseCSV(ctx context.Context, path string) (*TableResult, error) {
	tbl, err := r.NewParallelIngestor(NewParseOptions(r.Config())).Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return NewTableResult(tbl), nil
}

// ParseCSVWithOptions parses a file with host options
func (r *Runtime) ParseCSVWithOptions(ctx context.Context, path string, opts CSVOptions) (*TableResult, error) {
	parseOpts, err := opts.parseOptions(r.Config())
	if err != nil {
		return nil, NewErrorContext("parse", path).Error(err)
	}
	tbl, err := r.NewParallelIngestor(parseOpts).Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return NewTableResult(tbl), nil
}

// InferCSVSchema infers the schema of a file from the default sample.
// sampleSize is informational and does not change the sample.
func (r *Runtime) InferCSVSchema(ctx context.Context, path string, sampleSize int) (*SchemaResult, error) {
	r.logger.Debug("schema inference requested", "path", path, "sample_size", sampleSize)
	schema, err := r.NewParallelIngestor(NewParseOptions(r.Config())).InferSchema(ctx, path)
	if err != nil {
		return nil, err
	}
	return &SchemaResult{
		Columns:    schema.Names(),
		DTypes:     schema.TypeNames(),
		NumColumns: schema.Len(),
	}, nil
}

// ParseCSVStreaming parses a file through the streaming ingestor. A zero
// chunkSize or memoryLimitMB selects the streaming default.
func (r *Runtime) ParseCSVStreaming(ctx context.Context, path string, chunkSize, memoryLimitMB int) (*TableResult, error) {
	opts := DefaultStreamingOptions()
	if chunkSize != 0 {
		opts = opts.WithChunkSize(chunkSize)
	}
	if memoryLimitMB != 0 {
		opts = opts.WithMemoryLimitMB(memoryLimitMB)
	}

	tbl, err := r.NewStreamingIngestor(opts).ParseStreaming(ctx, path)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return NewTableResult(tbl), nil
}

// ShouldUseStreaming recommends streaming when the estimate for the file is
// above memoryLimitMB. Zero selects DefaultStreamingMemoryLimitMB.
func (r *Runtime) ShouldUseStreaming(path string, memoryLimitMB int) (*StreamingRecommendation, error) {
	if memoryLimitMB == 0 {
		memoryLimitMB = DefaultStreamingMemoryLimitMB
	}
	if memoryLimitMB < 0 {
		return nil, &ValidationError{Field: "memory_limit_mb", Reason: fmt.Sprintf("must be greater than 0, got %d", memoryLimitMB)}
	}

	ingestor := r.NewStreamingIngestor(DefaultStreamingOptions().WithMemoryLimitMB(memoryLimitMB))
	estimated, err := ingestor.EstimateMemoryUsage(path)
	if err != nil {
		return nil, err
	}
	return &StreamingRecommendation{
		Recommended:       ExceedsLimit(estimated, int64(memoryLimitMB)),
		EstimatedMemoryMB: estimated,
		MemoryLimitMB:     int64(memoryLimitMB),
	}, nil
}
