package model

import (
	"testing"
)

func TestOutputFormat_Extension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{name: "CSV format", format: OutputFormatCSV, want: ".csv"},
		{name: "TSV format", format: OutputFormatTSV, want: ".tsv"},
		{name: "Parquet format", format: OutputFormatParquet, want: ".parquet"},
		{name: "XLSX format", format: OutputFormatXLSX, want: ".xlsx"},
		{name: "Unknown format defaults to csv", format: OutputFormat(999), want: ".csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.format.Extension(); got != tt.want {
				t.Errorf("OutputFormat.Extension() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"csv", "TSV", ".parquet", "xlsx"} {
		if _, ok := ParseOutputFormat(name); !ok {
			t.Errorf("ParseOutputFormat(%q) should succeed", name)
		}
	}
	if _, ok := ParseOutputFormat("ltsv"); ok {
		t.Error("ParseOutputFormat(ltsv) should fail")
	}
}

func TestCompressionFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want CompressionType
	}{
		{"data.csv", CompressionNone},
		{"data.csv.gz", CompressionGZ},
		{"DATA.CSV.BZ2", CompressionBZ2},
		{"data.csv.xz", CompressionXZ},
		{"data.csv.zst", CompressionZSTD},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := CompressionFromPath(tt.path); got != tt.want {
				t.Errorf("CompressionFromPath(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if got := TrimCompressionExtension("dir/data.csv.zst"); got != "dir/data.csv" {
		t.Errorf("TrimCompressionExtension() = %s, want dir/data.csv", got)
	}
	if got := TrimCompressionExtension("data.csv"); got != "data.csv" {
		t.Errorf("TrimCompressionExtension() = %s, want data.csv", got)
	}
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want CompressionType
		ok   bool
	}{
		{"", CompressionNone, true},
		{"gzip", CompressionGZ, true},
		{".zst", CompressionZSTD, true},
		{"xz", CompressionXZ, true},
		{"lz4", CompressionNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseCompressionType(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCompressionType(%q) = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDumpOptions_FileExtension(t *testing.T) {
	t.Parallel()

	opts := NewDumpOptions()
	if got := opts.FileExtension(); got != ".csv" {
		t.Errorf("FileExtension() = %s, want .csv", got)
	}

	opts = opts.WithFormat(OutputFormatParquet).WithCompression(CompressionZSTD)
	if got := opts.FileExtension(); got != ".parquet.zst" {
		t.Errorf("FileExtension() = %s, want .parquet.zst", got)
	}
}

func TestFormatAndCodecNamesRoundTrip(t *testing.T) {
	t.Parallel()

	for _, f := range []OutputFormat{OutputFormatCSV, OutputFormatTSV, OutputFormatParquet, OutputFormatXLSX} {
		got, ok := ParseOutputFormat(f.Extension())
		if !ok || got != f {
			t.Errorf("ParseOutputFormat(%q) = (%v, %v), want (%v, true)", f.Extension(), got, ok, f)
		}
	}
	if got := OutputFormat(-1).String(); got != "csv" {
		t.Errorf("OutputFormat(-1).String() = %s, want csv", got)
	}

	for _, c := range []CompressionType{CompressionNone, CompressionGZ, CompressionBZ2, CompressionXZ, CompressionZSTD} {
		got, ok := ParseCompressionType(c.String())
		if !ok || got != c {
			t.Errorf("ParseCompressionType(%q) = (%v, %v), want (%v, true)", c.String(), got, ok, c)
		}
		if c == CompressionNone {
			continue
		}
		if got := CompressionFromPath("x.csv" + c.Extension()); got != c {
			t.Errorf("CompressionFromPath(x.csv%s) = %v, want %v", c.Extension(), got, c)
		}
	}
	if got := CompressionType(42); got.String() != "none" || got.Extension() != "" {
		t.Errorf("unknown CompressionType = (%s, %q), want (none, \"\")", got.String(), got.Extension())
	}
	if opts := (DumpOptions{}); opts != NewDumpOptions() {
		t.Errorf("zero DumpOptions = %+v, want %+v", opts, NewDumpOptions())
	}
}
