package model

import "strings"

// OutputFormat is the file format a table is dumped as
type OutputFormat int

const (
	// OutputFormatCSV writes comma separated text
	OutputFormatCSV OutputFormat = iota
	// OutputFormatTSV writes tab separated text
	OutputFormatTSV
	// OutputFormatParquet writes a snappy-compressed Parquet file
	OutputFormatParquet
	// OutputFormatXLSX writes a single-sheet Excel workbook
	OutputFormatXLSX
)

// outputFormatNames is indexed by OutputFormat
var outputFormatNames = [...]string{
	OutputFormatCSV:     "csv",
	OutputFormatTSV:     "tsv",
	OutputFormatParquet: "parquet",
	OutputFormatXLSX:    "xlsx",
}

// known reports whether f is one of the declared formats
func (f OutputFormat) known() bool {
	return f >= 0 && int(f) < len(outputFormatNames)
}

// String returns the format name. Unknown values render as "csv".
func (f OutputFormat) String() string {
	if !f.known() {
		return outputFormatNames[OutputFormatCSV]
	}
	return outputFormatNames[f]
}

// Extension returns the file extension of the format, dot included
func (f OutputFormat) Extension() string {
	return "." + f.String()
}

// ParseOutputFormat maps a case-insensitive name such as "tsv" or ".parquet"
// to an OutputFormat.
func ParseOutputFormat(name string) (OutputFormat, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	for f, n := range outputFormatNames {
		if n == name {
			return OutputFormat(f), true
		}
	}
	return OutputFormatCSV, false
}

// CompressionType is the codec applied to an input or output file
type CompressionType int

const (
	// CompressionNone leaves the file uncompressed
	CompressionNone CompressionType = iota
	// CompressionGZ is gzip, read and written
	CompressionGZ
	// CompressionBZ2 is bzip2, read only
	CompressionBZ2
	// CompressionXZ is xz, read and written
	CompressionXZ
	// CompressionZSTD is zstandard, read and written
	CompressionZSTD
)

// codec describes one compression type
type codec struct {
	name      string
	extension string
	aliases   []string
}

// codecs is indexed by CompressionType
var codecs = [...]codec{
	CompressionNone: {name: "none", aliases: []string{""}},
	CompressionGZ:   {name: "gz", extension: ".gz", aliases: []string{"gzip"}},
	CompressionBZ2:  {name: "bz2", extension: ".bz2", aliases: []string{"bzip2"}},
	CompressionXZ:   {name: "xz", extension: ".xz"},
	CompressionZSTD: {name: "zstd", extension: ".zst", aliases: []string{"zst"}},
}

// codec returns the description of c; unknown values describe CompressionNone
func (c CompressionType) codec() codec {
	if c < 0 || int(c) >= len(codecs) {
		return codecs[CompressionNone]
	}
	return codecs[c]
}

// String returns the codec name
func (c CompressionType) String() string {
	return c.codec().name
}

// Extension returns the file extension of the codec, or "" for none
func (c CompressionType) Extension() string {
	return c.codec().extension
}

// ParseCompressionType maps a name, alias or extension such as "gzip" or
// ".zst" to a CompressionType.
func ParseCompressionType(name string) (CompressionType, bool) {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	for c, cd := range codecs {
		if cd.name == name {
			return CompressionType(c), true
		}
		for _, alias := range cd.aliases {
			if alias == name {
				return CompressionType(c), true
			}
		}
	}
	return CompressionNone, false
}

// CompressionFromPath picks the codec from the last extension of path, ignoring case
func CompressionFromPath(path string) CompressionType {
	lower := strings.ToLower(path)
	for c, cd := range codecs {
		if cd.extension != "" && strings.HasSuffix(lower, cd.extension) {
			return CompressionType(c)
		}
	}
	return CompressionNone
}

// TrimCompressionExtension strips a codec extension, so "a.csv.gz" becomes "a.csv"
func TrimCompressionExtension(path string) string {
	ext := CompressionFromPath(path).Extension()
	return path[:len(path)-len(ext)]
}

// DumpOptions selects the format and codec of DumpTable output.
// The zero value writes uncompressed CSV.
type DumpOptions struct {
	Format      OutputFormat
	Compression CompressionType
}

// NewDumpOptions returns options for uncompressed CSV
func NewDumpOptions() DumpOptions {
	return DumpOptions{}
}

// WithFormat returns a copy writing format
func (o DumpOptions) WithFormat(format OutputFormat) DumpOptions {
	o.Format = format
	return o
}

// WithCompression returns a copy compressing with compression
func (o DumpOptions) WithCompression(compression CompressionType) DumpOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the format extension followed by the codec
// extension, for example ".parquet.zst"
func (o DumpOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
