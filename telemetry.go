package csvingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/nao1215/csvingest"

// Metric names
const (
	metricRowsIngested        = "csvingest.rows.ingested"
	metricBatchesDelivered    = "csvingest.batches.delivered"
	metricPreflightRejections = "csvingest.preflight.rejections"
	metricIngestDuration      = "csvingest.ingest.duration"
)

// Attribute keys for ingestion spans and metrics.
var (
	AttrOperation = attribute.Key("csvingest.operation")
	AttrPath      = attribute.Key("csvingest.path")
	AttrMode      = attribute.Key("csvingest.mode")
	AttrStatus    = attribute.Key("csvingest.status")
	AttrRunID     = attribute.Key("csvingest.run_id")
	AttrRows      = attribute.Key("csvingest.rows")
)

// Ingestion modes
const (
	modeParallel  = "parallel"
	modeLowMemory = "low_memory"
	modeBatches   = "batches"
	modeInspect   = "inspect"
)

// instruments holds the OTEL instruments used by a Runtime
type instruments struct {
	tracer trace.Tracer

	rowsIngested        metric.Int64Counter
	batchesDelivered    metric.Int64Counter
	preflightRejections metric.Int64Counter
	ingestDuration      metric.Float64Histogram
}

func newInstruments(mp metric.MeterProvider, tp trace.TracerProvider) (*instruments, error) {
	meter := mp.Meter(scopeName)

	rowsIngested, err := meter.Int64Counter(metricRowsIngested,
		metric.WithDescription("Rows materialized into tables"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}

	batchesDelivered, err := meter.Int64Counter(metricBatchesDelivered,
		metric.WithDescription("Batches handed to consumers"),
		metric.WithUnit("{batch}"))
	if err != nil {
		return nil, err
	}

	preflightRejections, err := meter.Int64Counter(metricPreflightRejections,
		metric.WithDescription("Files rejected by the memory pre-flight check"),
		metric.WithUnit("{file}"))
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(metricIngestDuration,
		metric.WithDescription("Ingestion call duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &instruments{
		tracer:              tp.Tracer(scopeName),
		rowsIngested:        rowsIngested,
		batchesDelivered:    batchesDelivered,
		preflightRejections: preflightRejections,
		ingestDuration:      ingestDuration,
	}, nil
}

// ingestion tracks a single ingestion call from start to finish
type ingestion struct {
	ctx    context.Context
	span   trace.Span
	start  time.Time
	op     string
	mode   string
	inst   *instruments
	logger *slog.Logger
}

// startIngestion opens a span and a run-scoped logger for one call
func startIngestion(ctx context.Context, inst *instruments, logger *slog.Logger, op, path string) *ingestion {
	runID := uuid.NewString()
	ctx, span := inst.tracer.Start(ctx, "csvingest."+op, trace.WithAttributes(
		AttrOperation.String(op),
		AttrPath.String(path),
		AttrRunID.String(runID),
	))
	return &ingestion{
		ctx:    ctx,
		span:   span,
		start:  time.Now(),
		op:     op,
		inst:   inst,
		logger: logger.With("run_id", runID, "op", op, "path", path),
	}
}

// setMode records the strategy chosen for the call
func (in *ingestion) setMode(mode string) {
	in.mode = mode
	in.span.SetAttributes(AttrMode.String(mode))
	in.logger.Debug("ingestion strategy selected", "mode", mode)
}

// rejected counts a pre-flight memory rejection
func (in *ingestion) rejected(estimatedMB, limitMB int64) {
	in.inst.preflightRejections.Add(in.ctx, 1, metric.WithAttributes(AttrOperation.String(in.op)))
	in.logger.Warn("memory pre-flight rejected file", "estimated_mb", estimatedMB, "limit_mb", limitMB)
}

// batchDelivered counts one batch handed to a consumer
func (in *ingestion) batchDelivered() {
	in.inst.batchesDelivered.Add(in.ctx, 1, metric.WithAttributes(AttrOperation.String(in.op)))
}

// end closes the span and records duration and row count
func (in *ingestion) end(rows int64, err error) {
	defer in.span.End()

	durationMs := float64(time.Since(in.start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		in.span.RecordError(err)
		in.span.SetStatus(codes.Error, err.Error())
	}
	in.span.SetAttributes(AttrRows.Int64(rows), AttrStatus.String(status))

	attrs := metric.WithAttributes(AttrOperation.String(in.op), AttrStatus.String(status))
	in.inst.ingestDuration.Record(in.ctx, durationMs, attrs)
	if err == nil && rows > 0 {
		in.inst.rowsIngested.Add(in.ctx, rows, metric.WithAttributes(AttrOperation.String(in.op)))
	}

	if err != nil {
		in.logger.Error("ingestion failed", "error", err, "category", Classify(err).String(), "duration_ms", durationMs)
		return
	}
	in.logger.Info("ingestion finished", "mode", in.mode, "rows", rows, "duration_ms", durationMs)
}
