// Package model provides domain model for csvingest
package model

import (
	"errors"
	"fmt"
	"runtime"
)

// Process-wide defaults
const (
	// DefaultChunkSize is the default number of rows per chunk
	DefaultChunkSize = 100_000
	// DefaultMemoryLimitMB is the default process memory ceiling in MB
	DefaultMemoryLimitMB = 4096
	// DefaultCacheSize is the default cache size
	DefaultCacheSize = 1000
	// AutoThreadCount requests one thread per available CPU
	AutoThreadCount = 0
)

// ProcessConfig holds process-wide ingestion tunables.
//
// A ProcessConfig is a plain value: copying it yields an independent snapshot.
type ProcessConfig struct {
	// ThreadCount is the resolved number of worker threads (always positive once resolved)
	ThreadCount int
	// ChunkSize is the default number of rows per chunk
	ChunkSize int
	// MemoryLimitMB is the pre-flight memory ceiling in megabytes
	MemoryLimitMB int
	// EnableSIMD toggles vectorized code paths in the engine
	EnableSIMD bool
	// CacheSize is the size of internal caches. Stored, currently unused.
	CacheSize int
}

// DefaultProcessConfig returns the configuration a fresh process starts with.
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		ThreadCount:   ResolveThreadCount(AutoThreadCount),
		ChunkSize:     DefaultChunkSize,
		MemoryLimitMB: DefaultMemoryLimitMB,
		EnableSIMD:    true,
		CacheSize:     DefaultCacheSize,
	}
}

// ResolveThreadCount maps AutoThreadCount to the number of available CPUs.
func ResolveThreadCount(n int) int {
	if n == AutoThreadCount {
		return runtime.NumCPU()
	}
	return n
}

// Validate reports every field that is out of range.
func (c ProcessConfig) Validate() error {
	var errs []error
	if c.ThreadCount <= 0 {
		errs = append(errs, fmt.Errorf("thread_count must be greater than 0, got %d", c.ThreadCount))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be greater than 0, got %d", c.ChunkSize))
	}
	if c.MemoryLimitMB <= 0 {
		errs = append(errs, fmt.Errorf("memory_limit_mb must be greater than 0, got %d", c.MemoryLimitMB))
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	return errors.Join(errs...)
}
