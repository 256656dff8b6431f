package csvingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRuntime creates a runtime with no-op telemetry and logging
func newTestRuntime(t *testing.T, opts ...RuntimeOption) *Runtime {
	t.Helper()
	rt, err := NewRuntime(opts...)
	require.NoError(t, err)
	return rt
}

// writeTestFile writes content into a file named name under a fresh temp dir
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// idCSV returns a CSV with an id column 0..n-1 and a name column
func idCSV(n int) string {
	var sb strings.Builder
	sb.WriteString("id,name\n")
	for i := range n {
		fmt.Fprintf(&sb, "%d,name%d\n", i, i)
	}
	return sb.String()
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	cfg := rt.Config()
	assert.Equal(t, runtime.NumCPU(), cfg.ThreadCount)
	assert.Equal(t, 100_000, cfg.ChunkSize)
	assert.Equal(t, 4096, cfg.MemoryLimitMB)
	assert.True(t, cfg.EnableSIMD)
	assert.Equal(t, 1000, cfg.CacheSize)
	assert.Equal(t, 0, rt.PoolSize())
}

func TestRuntime_ConfigSnapshots(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	first := rt.Config()
	second := rt.Config()
	assert.Equal(t, first, second)

	// Mutating a snapshot does not touch the runtime
	first.ChunkSize = 1
	assert.Equal(t, 100_000, rt.Config().ChunkSize)
}

func TestRuntime_Configure(t *testing.T) {
	t.Parallel()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		t.Parallel()

		rt := newTestRuntime(t)
		result, err := rt.Configure(WithChunkSize(500), WithSIMD(false))
		require.NoError(t, err)
		assert.False(t, result.PoolInitialized)
		assert.False(t, result.PoolWasRebuilt)
		assert.Equal(t, 0, result.PoolSize)

		cfg := rt.Config()
		assert.Equal(t, 500, cfg.ChunkSize)
		assert.False(t, cfg.EnableSIMD)
		assert.Equal(t, 4096, cfg.MemoryLimitMB)
		assert.Equal(t, 1000, cfg.CacheSize)
	})

	t.Run("zero chunk size is rejected and nothing changes", func(t *testing.T) {
		t.Parallel()

		rt := newTestRuntime(t)
		before := rt.Config()
		_, err := rt.Configure(WithMemoryLimitMB(10), WithChunkSize(0))
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, CategoryValidation, Classify(err))
		assert.Equal(t, before, rt.Config())
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			opt   ConfigOption
			field string
		}{
			{name: "zero memory limit", opt: WithMemoryLimitMB(0), field: "memory_limit_mb"},
			{name: "negative memory limit", opt: WithMemoryLimitMB(-5), field: "memory_limit_mb"},
			{name: "negative chunk size", opt: WithChunkSize(-1), field: "chunk_size"},
			{name: "negative thread count", opt: WithThreadCount(-2), field: "thread_count"},
			{name: "negative cache size", opt: WithCacheSize(-1), field: "cache_size"},
		}
		for _, tt := range tests {
			rt := newTestRuntime(t)
			_, err := rt.Configure(tt.opt)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr, tt.name)
			assert.Equal(t, tt.field, validationErr.Field, tt.name)
			assert.Equal(t, 0, rt.PoolSize(), tt.name)
		}
	})

	t.Run("first thread count builds the pool", func(t *testing.T) {
		t.Parallel()

		rt := newTestRuntime(t)
		result, err := rt.Configure(WithThreadCount(3))
		require.NoError(t, err)
		assert.True(t, result.PoolInitialized)
		assert.False(t, result.PoolWasRebuilt)
		assert.Equal(t, 3, result.PoolSize)
		assert.Equal(t, 3, rt.Config().ThreadCount)
	})

	t.Run("later thread count is stored only", func(t *testing.T) {
		t.Parallel()

		rt := newTestRuntime(t)
		_, err := rt.Configure(WithThreadCount(2))
		require.NoError(t, err)

		result, err := rt.Configure(WithThreadCount(6))
		require.NoError(t, err)
		assert.False(t, result.PoolInitialized)
		assert.False(t, result.PoolWasRebuilt)
		assert.Equal(t, 2, result.PoolSize)
		assert.Equal(t, 6, rt.Config().ThreadCount)
		assert.Equal(t, 2, rt.PoolSize())
	})

	t.Run("zero thread count means one per CPU", func(t *testing.T) {
		t.Parallel()

		rt := newTestRuntime(t)
		result, err := rt.Configure(WithThreadCount(0))
		require.NoError(t, err)
		assert.Equal(t, runtime.NumCPU(), result.PoolSize)
		assert.Equal(t, runtime.NumCPU(), rt.Config().ThreadCount)
	})
}

func TestRuntime_LazyPoolFromFirstUse(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	_, err := rt.Configure(WithChunkSize(10))
	require.NoError(t, err)
	require.Equal(t, 0, rt.PoolSize())

	path := writeTestFile(t, "ids.csv", idCSV(30))
	tbl, err := rt.NewParallelIngestor(NewParseOptions(rt.Config())).Parse(context.Background(), path)
	require.NoError(t, err)
	tbl.Release()

	assert.Equal(t, runtime.NumCPU(), rt.PoolSize())

	result, err := rt.Configure(WithThreadCount(1))
	require.NoError(t, err)
	assert.False(t, result.PoolInitialized)
	assert.Equal(t, runtime.NumCPU(), result.PoolSize)
}

func TestRuntime_ConcurrentUse(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	path := writeTestFile(t, "ids.csv", idCSV(200))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = rt.Configure(WithThreadCount(i+1), WithChunkSize(10+i))
			_ = rt.Config()
		}()
		go func() {
			defer wg.Done()
			result, err := rt.ParseCSV(context.Background(), path)
			if assert.NoError(t, err) {
				assert.Equal(t, int64(200), result.NumRows)
			}
		}()
	}
	wg.Wait()

	assert.Positive(t, rt.PoolSize())
	cfg := rt.Config()
	assert.NoError(t, cfg.Validate())
}

func TestWithLoggerNil(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t, WithLogger(nil))
	path := writeTestFile(t, "ids.csv", idCSV(3))
	_, err := rt.ParseCSV(context.Background(), path)
	require.NoError(t, err)
}
