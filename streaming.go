package csvingest

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/nao1215/csvingest/domain/model"
)

// StreamingIngestor chooses between a full parallel parse and the engine's
// low-memory mode, and splits parsed tables into row batches.
//
// ParseBatches materializes the whole table before slicing it, so peak memory
// is that of a full parse; batching bounds the consumer's working set only.
type StreamingIngestor struct {
	rt       *Runtime
	opts     StreamingOptions
	observer ProgressObserver
	// thresholdMB is the file size from which ParseStreaming uses low-memory mode
	thresholdMB int64
}

// NewStreamingIngestor creates an ingestor using opts
func (r *Runtime) NewStreamingIngestor(opts StreamingOptions) *StreamingIngestor {
	return &StreamingIngestor{rt: r, opts: opts, thresholdMB: StreamingThresholdMB}
}

// Options returns the streaming options
func (s *StreamingIngestor) Options() StreamingOptions {
	return s.opts
}

// WithProgressObserver returns a copy of the ingestor reporting to observer.
// The previous observer, if any, is replaced. A nil observer or a nil
// ProgressObserverFunc disables progress reporting.
func (s *StreamingIngestor) WithProgressObserver(observer ProgressObserver) *StreamingIngestor {
	c := *s
	c.observer = observer
	if f, ok := observer.(ProgressObserverFunc); ok && f == nil {
		c.observer = nil
	}
	return &c
}

// useLowMemoryPath reports whether a file of sizeBytes is parsed in low-memory mode
func useLowMemoryPath(sizeBytes, thresholdMB int64) bool {
	return sizeBytes/bytesPerMB >= thresholdMB
}

// ParseStreaming parses the file into a table. Files below StreamingThresholdMB
// go through the parallel path, memory pre-flight included. Larger files are
// parsed in low-memory mode and reported with a single progress event whose
// fields both hold the file size in bytes. The caller must Release the table.
func (s *StreamingIngestor) ParseStreaming(ctx context.Context, path string) (arrow.Table, error) {
	in := s.rt.startIngestion(ctx, "parse_streaming", path)
	tbl, err := s.parseStreaming(in, path)
	in.end(numRows(tbl), err)
	return tbl, err
}

func (s *StreamingIngestor) parseStreaming(in *ingestion, path string) (arrow.Table, error) {
	ectx := NewErrorContext("parse streaming", path)
	if err := s.opts.Validate(); err != nil {
		return nil, ectx.Error(err)
	}
	info, err := statInput(path)
	if err != nil {
		return nil, ectx.Error(err)
	}

	parseOpts := s.opts.parseOptions()
	if !useLowMemoryPath(info.Size(), s.thresholdMB) {
		return s.rt.NewParallelIngestor(parseOpts).parse(in, path, parseOpts)
	}

	eng, err := s.rt.engineFor()
	if err != nil {
		return nil, ectx.Error(err)
	}

	in.setMode(modeLowMemory)
	tbl, err := eng.Load(in.ctx, path, parseOpts.loadOptions(true))
	if err != nil {
		return nil, ectx.Error(engineError(err))
	}
	s.rt.logHeap(in, s.opts.MemoryLimitMB)
	s.notify(model.NewProgressEvent(info.Size(), info.Size()))
	return tbl, nil
}

// ParseBatches parses the file in low-memory mode and hands consecutive
// windows of ChunkSize rows to consumer, in order. After every batch the
// observer receives the number of rows delivered so far. The first consumer
// error stops the iteration and is returned wrapped.
func (s *StreamingIngestor) ParseBatches(ctx context.Context, path string, consumer BatchConsumer) error {
	in := s.rt.startIngestion(ctx, "parse_batches", path)
	in.setMode(modeBatches)
	rows, err := s.parseBatches(in, path, consumer)
	in.end(rows, err)
	return err
}

func (s *StreamingIngestor) parseBatches(in *ingestion, path string, consumer BatchConsumer) (int64, error) {
	ectx := NewErrorContext("parse batches", path)
	if consumer == nil {
		return 0, ectx.Error(&ValidationError{Field: "consumer", Reason: "consumer cannot be nil"})
	}
	if err := s.opts.Validate(); err != nil {
		return 0, ectx.Error(err)
	}
	if _, err := statInput(path); err != nil {
		return 0, ectx.Error(err)
	}

	eng, err := s.rt.engineFor()
	if err != nil {
		return 0, ectx.Error(err)
	}
	tbl, err := eng.Load(in.ctx, path, s.opts.parseOptions().loadOptions(true))
	if err != nil {
		return 0, ectx.Error(engineError(err))
	}
	defer tbl.Release()

	total := tbl.NumRows()
	chunk := int64(s.opts.ChunkSize)
	for offset := int64(0); offset < total; offset += chunk {
		if err := in.ctx.Err(); err != nil {
			return offset, ectx.Error(err)
		}

		end := min(offset+chunk, total)
		batch := array.NewTableSlice(tbl, offset, end)
		err := consumer.ConsumeBatch(in.ctx, batch)
		batch.Release()
		if err != nil {
			return offset, ectx.WithDetails(fmt.Sprintf("batch at rows [%d, %d)", offset, end)).Error(err)
		}

		in.batchDelivered()
		s.notify(model.NewProgressEvent(end, total))
	}
	return total, nil
}

// EstimateMemoryUsage returns the estimated peak memory in MB for the file
func (s *StreamingIngestor) EstimateMemoryUsage(path string) (int64, error) {
	info, err := statInput(path)
	if err != nil {
		return 0, NewErrorContext("estimate memory", path).Error(err)
	}
	return EstimateMemoryMB(info.Size()), nil
}

// ShouldUseStreaming reports whether the estimate exceeds the streaming
// options' memory limit. The runtime's ceiling is not consulted.
func (s *StreamingIngestor) ShouldUseStreaming(path string) (bool, error) {
	estimated, err := s.EstimateMemoryUsage(path)
	if err != nil {
		return false, err
	}
	return ExceedsLimit(estimated, int64(s.opts.MemoryLimitMB)), nil
}

func (s *StreamingIngestor) notify(event ProgressEvent) {
	if s.observer != nil {
		s.observer.OnProgress(event)
	}
}
