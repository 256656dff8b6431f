package csvingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/nao1215/csvingest/domain/model"
	"github.com/nao1215/csvingest/engine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// nopLogger is a logger that discards all output.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler            { return d }

// Runtime is the configuration context every ingestion runs in. It owns the
// process configuration and the worker pool the engine converts chunks on.
//
// The pool is built once: by the first Configure call that supplies a thread
// count, or by the first ingestion call, whichever comes first. Later thread
// counts are stored in the configuration only.
//
// Thread Safety: all methods are safe for concurrent use by multiple goroutines.
type Runtime struct {
	mu     sync.RWMutex
	config model.ProcessConfig
	engine *engine.Engine // nil until the pool is built

	alloc  memory.Allocator
	logger *slog.Logger
	inst   *instruments
}

// runtimeOptions collects RuntimeOption values
type runtimeOptions struct {
	logger         *slog.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	alloc          memory.Allocator
}

// RuntimeOption configures a Runtime
type RuntimeOption func(*runtimeOptions)

// WithLogger sets a structured logger. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(o *runtimeOptions) { o.logger = l }
}

// WithMeterProvider sets the meter provider. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) RuntimeOption {
	return func(o *runtimeOptions) { o.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) RuntimeOption {
	return func(o *runtimeOptions) { o.tracerProvider = tp }
}

// WithAllocator sets the Arrow allocator used for every table the runtime builds
func WithAllocator(alloc memory.Allocator) RuntimeOption {
	return func(o *runtimeOptions) { o.alloc = alloc }
}

// NewRuntime creates a runtime holding the default configuration
func NewRuntime(opts ...RuntimeOption) (*Runtime, error) {
	o := runtimeOptions{
		logger:         nopLogger,
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
		alloc:          memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = nopLogger
	}

	inst, err := newInstruments(o.meterProvider, o.tracerProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry instruments: %w", err)
	}

	return &Runtime{
		config: model.DefaultProcessConfig(),
		alloc:  o.alloc,
		logger: o.logger,
		inst:   inst,
	}, nil
}

// ConfigureResult describes what a Configure call did to the worker pool
type ConfigureResult struct {
	// PoolInitialized is true when this call built the pool
	PoolInitialized bool
	// PoolWasRebuilt is always false: a built pool is never resized
	PoolWasRebuilt bool
	// PoolSize is the size of the live pool, 0 while none is built
	PoolSize int
}

// configUpdate holds the fields a Configure call provides
type configUpdate struct {
	threadCount   *int
	chunkSize     *int
	memoryLimitMB *int
	enableSIMD    *bool
	cacheSize     *int
}

// ConfigOption sets one field in a Configure call
type ConfigOption func(*configUpdate)

// WithThreadCount sets the worker thread count; 0 means one per CPU
func WithThreadCount(n int) ConfigOption {
	return func(u *configUpdate) { u.threadCount = &n }
}

// WithChunkSize sets the default number of rows per chunk
func WithChunkSize(n int) ConfigOption {
	return func(u *configUpdate) { u.chunkSize = &n }
}

// WithMemoryLimitMB sets the pre-flight memory ceiling
func WithMemoryLimitMB(n int) ConfigOption {
	return func(u *configUpdate) { u.memoryLimitMB = &n }
}

// WithSIMD toggles vectorized code paths
func WithSIMD(enabled bool) ConfigOption {
	return func(u *configUpdate) { u.enableSIMD = &enabled }
}

// WithCacheSize sets the cache size. The value is stored but not used.
func WithCacheSize(n int) ConfigOption {
	return func(u *configUpdate) { u.cacheSize = &n }
}

// validate checks every provided field before anything is applied
func (u configUpdate) validate() error {
	if u.threadCount != nil && *u.threadCount < 0 {
		return &ValidationError{Field: "thread_count", Reason: fmt.Sprintf("must not be negative, got %d", *u.threadCount)}
	}
	if u.chunkSize != nil && *u.chunkSize <= 0 {
		return &ValidationError{Field: "chunk_size", Reason: fmt.Sprintf("must be greater than 0, got %d", *u.chunkSize)}
	}
	if u.memoryLimitMB != nil && *u.memoryLimitMB <= 0 {
		return &ValidationError{Field: "memory_limit_mb", Reason: fmt.Sprintf("must be greater than 0, got %d", *u.memoryLimitMB)}
	}
	if u.cacheSize != nil && *u.cacheSize < 0 {
		return &ValidationError{Field: "cache_size", Reason: fmt.Sprintf("must not be negative, got %d", *u.cacheSize)}
	}
	return nil
}

// apply returns cfg with every provided field replaced
func (u configUpdate) apply(cfg model.ProcessConfig) model.ProcessConfig {
	if u.threadCount != nil {
		cfg.ThreadCount = model.ResolveThreadCount(*u.threadCount)
	}
	if u.chunkSize != nil {
		cfg.ChunkSize = *u.chunkSize
	}
	if u.memoryLimitMB != nil {
		cfg.MemoryLimitMB = *u.memoryLimitMB
	}
	if u.enableSIMD != nil {
		cfg.EnableSIMD = *u.enableSIMD
	}
	if u.cacheSize != nil {
		cfg.CacheSize = *u.cacheSize
	}
	return cfg
}

// Configure updates the provided fields. Either every field is applied or,
// on error, none is.
func (r *Runtime) Configure(opts ...ConfigOption) (ConfigureResult, error) {
	var u configUpdate
	for _, opt := range opts {
		opt(&u)
	}
	if err := u.validate(); err != nil {
		return ConfigureResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := u.apply(r.config)
	if err := next.Validate(); err != nil {
		return ConfigureResult{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	var result ConfigureResult
	if u.threadCount != nil {
		if r.engine == nil {
			if err := r.initPoolLocked(next.ThreadCount); err != nil {
				return ConfigureResult{}, err
			}
			result.PoolInitialized = true
		} else if next.ThreadCount != r.engine.Pool().Size() {
			r.logger.Info("thread pool already initialized, thread count stored only",
				"requested", next.ThreadCount, "pool_size", r.engine.Pool().Size())
		}
	}

	r.config = next
	result.PoolSize = r.poolSizeLocked()
	r.logger.Debug("configuration updated",
		"thread_count", next.ThreadCount,
		"chunk_size", next.ChunkSize,
		"memory_limit_mb", next.MemoryLimitMB,
		"enable_simd", next.EnableSIMD,
		"cache_size", next.CacheSize,
		"pool_initialized", result.PoolInitialized)
	return result, nil
}

// Config returns a copy of the current configuration
func (r *Runtime) Config() model.ProcessConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// PoolSize returns the size of the worker pool, 0 while none is built
func (r *Runtime) PoolSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.poolSizeLocked()
}

func (r *Runtime) poolSizeLocked() int {
	if r.engine == nil {
		return 0
	}
	return r.engine.Pool().Size()
}

// initPoolLocked builds the pool and the engine. r.mu must be held for writing.
func (r *Runtime) initPoolLocked(size int) error {
	pool, err := engine.NewPool(size)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrThreadPool, err)
	}
	r.engine = engine.New(pool, engine.WithAllocator(r.alloc))
	r.logger.Debug("thread pool initialized", "pool_size", size)
	return nil
}

// engineFor returns the engine, building the pool from the current
// configuration when no Configure call has done so yet
func (r *Runtime) engineFor() (*engine.Engine, error) {
	r.mu.RLock()
	eng := r.engine
	r.mu.RUnlock()
	if eng != nil {
		return eng, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		if err := r.initPoolLocked(r.config.ThreadCount); err != nil {
			return nil, err
		}
	}
	return r.engine, nil
}

// startIngestion opens the span and logger of one ingestion call
func (r *Runtime) startIngestion(ctx context.Context, op, path string) *ingestion {
	return startIngestion(ctx, r.inst, r.logger, op, path)
}

// preflight rejects a file whose estimated footprint is above limitMB
func (r *Runtime) preflight(in *ingestion, path string, sizeBytes int64, limitMB int) error {
	estimated := EstimateMemoryMB(sizeBytes)
	if ExceedsLimit(estimated, int64(limitMB)) {
		in.rejected(estimated, int64(limitMB))
		return &MemoryLimitError{Path: path, Requested: estimated, Limit: int64(limitMB)}
	}
	return nil
}

// logHeap logs a heap snapshot after a parse. The pre-flight check is an
// estimate, so the actual heap may still pass the ceiling.
func (r *Runtime) logHeap(in *ingestion, limitMB int) {
	if !in.logger.Enabled(in.ctx, slog.LevelWarn) {
		return
	}
	info := readMemoryInfo(int64(limitMB))
	if info.Status == MemoryStatusOK {
		in.logger.Debug("heap after parse", "heap_mb", info.CurrentMB, "limit_mb", info.LimitMB)
		return
	}
	in.logger.Warn("heap usage near or above memory limit after parse",
		"heap_mb", info.CurrentMB,
		"limit_mb", info.LimitMB,
		"usage", info.Usage,
		"status", info.Status.String())
}
