// Command csvingest parses CSV files into columnar tables and prints the
// results as JSON.
//
// Usage:
//
//	csvingest [-config csvingest.toml] <command> [flags] FILE
//
// Commands: parse, schema, count, stream, batches, recommend, export, sqlite.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/nao1215/csvingest"
	"github.com/nao1215/csvingest/domain/model"
	"github.com/nao1215/csvingest/internal/config"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks command line mistakes
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every command needs
type app struct {
	rt     *csvingest.Runtime
	cfg    config.Config
	stdout io.Writer
}

// command runs one subcommand with its own arguments
type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"parse":     runParse,
	"schema":    runSchema,
	"count":     runCount,
	"stream":    runStream,
	"batches":   runBatches,
	"recommend": runRecommend,
	"export":    runExport,
	"sqlite":    runSQLite,
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("csvingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("CSVINGEST_CONFIG"), "path to a TOML config file")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: csvingest [-config FILE] <%s> [flags] FILE\n", strings.Join(commandNames(), "|"))
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return reportError(stderr, fmt.Errorf("%w: %w", csvingest.ErrConfig, err))
	}

	rt, err := csvingest.NewRuntime(csvingest.WithLogger(cfg.Log.NewLogger(stderr)))
	if err != nil {
		return reportError(stderr, err)
	}
	if _, err := rt.Configure(cfg.ConfigOptions()...); err != nil {
		return reportError(stderr, err)
	}

	a := &app{rt: rt, cfg: cfg, stdout: stdout}
	if err := cmd(ctx, a, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			return exitUsage
		}
		return reportError(stderr, err)
	}
	return exitOK
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reportError prints err with its category as JSON
func reportError(w io.Writer, err error) int {
	_ = writeJSON(w, map[string]string{
		"error":    err.Error(),
		"category": csvingest.Classify(err).String(),
	})
	return exitError
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseArgs parses flags and returns the single FILE argument
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: %s expects exactly one FILE argument", errUsage, fs.Name())
	}
	return fs.Arg(0), nil
}

func runParse(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	opts := csvingest.NewCSVOptions()
	fs.StringVar(&opts.Delimiter, "delimiter", opts.Delimiter, "field delimiter (one character)")
	noHeader := fs.Bool("no-header", false, "the first line is data")
	fs.IntVar(&opts.ChunkSize, "chunk", 0, "rows per conversion chunk (0 uses the configured size)")
	fs.IntVar(&opts.InferenceSampleRows, "sample", 0, "rows sampled for type inference (0 uses the default)")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	opts.HasHeader = !*noHeader

	result, err := a.rt.ParseCSVWithOptions(ctx, path, opts)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, result)
}

func runSchema(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	sample := fs.Int("sample", csvingest.DefaultSchemaSampleRows, "informational sample size")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	result, err := a.rt.InferCSVSchema(ctx, path, *sample)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, result)
}

func runCount(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	ingestor := a.rt.NewParallelIngestor(csvingest.NewParseOptions(a.rt.Config()))
	lines, err := ingestor.CountLines(path)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, map[string]int64{"lines": lines})
}

func runStream(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("stream", flag.ContinueOnError)
	chunk := fs.Int("chunk", a.cfg.Streaming.ChunkSize, "rows per batch")
	limit := fs.Int("memory-limit", a.cfg.Streaming.MemoryLimitMB, "streaming memory limit in MB")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	result, err := a.rt.ParseCSVStreaming(ctx, path, *chunk, *limit)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, result)
}

// batchReport summarizes a ParseBatches run
type batchReport struct {
	Batches  int                   `json:"batches"`
	Rows     int64                 `json:"rows"`
	Progress []model.ProgressEvent `json:"progress"`
}

func runBatches(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("batches", flag.ContinueOnError)
	chunk := fs.Int("chunk", a.cfg.Streaming.ChunkSize, "rows per batch")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	report := batchReport{Progress: []model.ProgressEvent{}}
	ingestor := a.rt.NewStreamingIngestor(a.cfg.StreamingOptions().WithChunkSize(*chunk)).
		WithProgressObserver(csvingest.ProgressObserverFunc(func(e csvingest.ProgressEvent) {
			report.Progress = append(report.Progress, e)
		}))

	err = ingestor.ParseBatches(ctx, path, csvingest.BatchConsumerFunc(func(_ context.Context, batch arrow.Table) error {
		report.Batches++
		report.Rows += batch.NumRows()
		return nil
	}))
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, report)
}

func runRecommend(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	limit := fs.Int("memory-limit", a.cfg.Streaming.MemoryLimitMB, "streaming memory limit in MB")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	result, err := a.rt.ShouldUseStreaming(path, *limit)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, result)
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	formatName := fs.String("format", "csv", "output format: csv, tsv, parquet, xlsx")
	compressionName := fs.String("compression", "none", "output compression: none, gz, xz, zstd")
	outDir := fs.String("out", ".", "output directory")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	format, ok := model.ParseOutputFormat(*formatName)
	if !ok {
		return &csvingest.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown output format %q", *formatName)}
	}
	compression, ok := model.ParseCompressionType(*compressionName)
	if !ok {
		return &csvingest.ValidationError{Field: "compression", Reason: fmt.Sprintf("unknown compression %q", *compressionName)}
	}

	tbl, err := a.rt.NewParallelIngestor(csvingest.NewParseOptions(a.rt.Config())).Parse(ctx, path)
	if err != nil {
		return err
	}
	defer tbl.Release()

	opts := csvingest.NewDumpOptions().WithFormat(format).WithCompression(compression)
	written, err := csvingest.DumpTable(tbl, *outDir, csvingest.TableNameFromPath(path), opts)
	if err != nil {
		return err
	}
	return writeJSON(a.stdout, map[string]any{"path": written, "rows": tbl.NumRows()})
}

func runSQLite(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("sqlite", flag.ContinueOnError)
	chunk := fs.Int("chunk", a.cfg.Streaming.ChunkSize, "rows per inserted batch")
	table := fs.String("table", "", "table name (defaults to the file name)")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if *table == "" {
		*table = csvingest.TableNameFromPath(path)
	}

	db, err := csvingest.OpenSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	sink := csvingest.NewSQLiteSink(db, *table)
	ingestor := a.rt.NewStreamingIngestor(a.cfg.StreamingOptions().WithChunkSize(*chunk))
	if err := ingestor.ParseBatches(ctx, path, sink); err != nil {
		return err
	}
	return writeJSON(a.stdout, map[string]any{"table": sink.TableName(), "rows": sink.RowsWritten()})
}
