package csvingest

import "github.com/nao1215/csvingest/domain/model"

// Type aliases for the domain model
type (
	// ProcessConfig holds process-wide ingestion tunables
	ProcessConfig = model.ProcessConfig
	// Schema is an ordered sequence of named, typed columns
	Schema = model.Schema
	// Column is a named, typed column
	Column = model.Column
	// LogicalType is the inferred type of a column
	LogicalType = model.LogicalType
	// ProgressEvent reports how far an ingestion has advanced
	ProgressEvent = model.ProgressEvent
	// DumpOptions represents options for dumping a table
	DumpOptions = model.DumpOptions
	// OutputFormat represents the output file format
	OutputFormat = model.OutputFormat
	// CompressionType represents the compression type
	CompressionType = model.CompressionType
)

// Re-export constants for easier use
const (
	// LogicalTypeString represents text columns
	LogicalTypeString = model.LogicalTypeString
	// LogicalTypeInt64 represents 64-bit integer columns
	LogicalTypeInt64 = model.LogicalTypeInt64
	// LogicalTypeFloat64 represents 64-bit floating point columns
	LogicalTypeFloat64 = model.LogicalTypeFloat64
	// LogicalTypeBoolean represents boolean columns
	LogicalTypeBoolean = model.LogicalTypeBoolean

	// OutputFormatCSV represents CSV output format
	OutputFormatCSV = model.OutputFormatCSV
	// OutputFormatTSV represents TSV output format
	OutputFormatTSV = model.OutputFormatTSV
	// OutputFormatParquet represents Apache Parquet output format
	OutputFormatParquet = model.OutputFormatParquet
	// OutputFormatXLSX represents Excel XLSX output format
	OutputFormatXLSX = model.OutputFormatXLSX

	// CompressionNone represents no compression
	CompressionNone = model.CompressionNone
	// CompressionGZ represents gzip compression
	CompressionGZ = model.CompressionGZ
	// CompressionBZ2 represents bzip2 compression
	CompressionBZ2 = model.CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ = model.CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD = model.CompressionZSTD
)

// NewDumpOptions creates new DumpOptions with default values (CSV format, no compression)
var NewDumpOptions = model.NewDumpOptions

// DefaultProcessConfig returns the configuration a fresh Runtime starts with
var DefaultProcessConfig = model.DefaultProcessConfig
