package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nao1215/csvingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 0, cfg.Runtime.ThreadCount)
	assert.Equal(t, 100_000, cfg.Runtime.ChunkSize)
	assert.Equal(t, 4096, cfg.Runtime.MemoryLimitMB)
	assert.True(t, cfg.Runtime.EnableSIMD)
	assert.Equal(t, 1000, cfg.Runtime.CacheSize)
	assert.Equal(t, 100_000, cfg.Streaming.ChunkSize)
	assert.Equal(t, 1024, cfg.Streaming.MemoryLimitMB)
}

func TestLoadFromTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[runtime]
thread_count = 3
memory_limit_mb = 512

[streaming]
chunk_size = 250

[log]
level = "debug"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Runtime.ThreadCount)
	assert.Equal(t, 512, cfg.Runtime.MemoryLimitMB)
	assert.Equal(t, 250, cfg.Streaming.ChunkSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults preserved
	assert.Equal(t, 100_000, cfg.Runtime.ChunkSize)
	assert.Equal(t, 1024, cfg.Streaming.MemoryLimitMB)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[runtime\nthread_count = "), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CSVINGEST_CHUNK_SIZE", "42")
	t.Setenv("CSVINGEST_ENABLE_SIMD", "false")
	t.Setenv("CSVINGEST_STREAMING_MEMORY_LIMIT_MB", "8")
	t.Setenv("CSVINGEST_LOG_FORMAT", "json")

	cfg, err := Load("/nonexistent/path.toml")
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Runtime.ChunkSize)
	assert.False(t, cfg.Runtime.EnableSIMD)
	assert.Equal(t, 8, cfg.Streaming.MemoryLimitMB)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("CSVINGEST_THREAD_COUNT", "many")

	_, err := Load("/nonexistent/path.toml")
	require.Error(t, err)
}

func TestConfigOptionsApplyToRuntime(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Runtime.ThreadCount = 2
	cfg.Runtime.ChunkSize = 10

	rt, err := csvingest.NewRuntime()
	require.NoError(t, err)

	result, err := rt.Configure(cfg.ConfigOptions()...)
	require.NoError(t, err)
	assert.True(t, result.PoolInitialized)
	assert.Equal(t, 2, result.PoolSize)
	assert.Equal(t, 10, rt.Config().ChunkSize)
}

func TestConfigOptionsAutoThreads(t *testing.T) {
	t.Parallel()

	rt, err := csvingest.NewRuntime()
	require.NoError(t, err)

	_, err = rt.Configure(Default().ConfigOptions()...)
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), rt.Config().ThreadCount)
}

func TestStreamingOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Streaming.ChunkSize = 7
	opts := cfg.StreamingOptions()
	assert.Equal(t, 7, opts.ChunkSize)
	assert.Equal(t, 1024, opts.MemoryLimitMB)
	assert.True(t, opts.HasHeader)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := LogConfig{Level: "info", Format: "json"}.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}
