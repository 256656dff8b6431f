// Package csvingest loads delimited text files into Apache Arrow tables and
// chooses how to do it: a parallel parse on a shared worker pool, a low-memory
// parse for large files, or row batches handed to a consumer.
//
// Every ingestion runs inside a Runtime, which holds the process configuration
// and the worker pool. The pool is built once, either by the first Configure
// call that sets a thread count or by the first ingestion.
//
// # Basic Usage
//
//	rt, err := csvingest.NewRuntime()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tbl, err := rt.NewParallelIngestor(csvingest.NewParseOptions(rt.Config())).
//	    Parse(ctx, "sales.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tbl.Release()
//
// # Memory Pre-flight
//
// Before a full parse the file size is turned into an estimate of twice the
// size in megabytes. A file whose estimate is above the configured
// MemoryLimitMB is rejected with a *MemoryLimitError before anything is read.
//
// # Streaming
//
// StreamingIngestor.ParseStreaming parses files of 100 MB or more in low-memory
// mode and smaller ones through the parallel path. ParseBatches delivers
// consecutive windows of rows to a BatchConsumer and reports progress after
// every batch:
//
//	db, _ := csvingest.OpenSQLite(ctx)
//	sink := csvingest.NewSQLiteSink(db, csvingest.TableNameFromPath("events.csv.gz"))
//	err := rt.NewStreamingIngestor(csvingest.DefaultStreamingOptions()).
//	    ParseBatches(ctx, "events.csv.gz", sink)
//
// # Type Inference
//
// Column types are inferred from a sample of rows. Each column becomes Int64,
// Float64, Boolean or String; empty fields are nulls. A later value that does
// not fit the inferred type fails the parse.
//
// # Errors
//
// Errors match one of ErrNotFound, ErrMemoryLimitExceeded, ErrParse,
// ErrValidation, ErrThreadPool, ErrConfig or ErrIO through errors.Is, and
// Classify maps them to the coarse runtime, memory and validation categories.
package csvingest
