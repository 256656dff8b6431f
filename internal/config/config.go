// Package config loads csvingest CLI settings: defaults, then a TOML file,
// then CSVINGEST_* environment variables (env wins).
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nao1215/csvingest"
)

// DefaultPath is the config file read when no path is given
const DefaultPath = "csvingest.toml"

// Config is the CLI configuration, one TOML table per section.
type Config struct {
	Runtime   RuntimeConfig   `toml:"runtime"`
	Streaming StreamingConfig `toml:"streaming"`
	Log       LogConfig       `toml:"log"`
}

// RuntimeConfig mirrors the Runtime's process configuration.
// A ThreadCount of 0 means one thread per CPU.
type RuntimeConfig struct {
	ThreadCount   int  `toml:"thread_count"`
	ChunkSize     int  `toml:"chunk_size"`
	MemoryLimitMB int  `toml:"memory_limit_mb"`
	EnableSIMD    bool `toml:"enable_simd"`
	CacheSize     int  `toml:"cache_size"`
}

// StreamingConfig holds the batch size and streaming threshold
type StreamingConfig struct {
	ChunkSize     int `toml:"chunk_size"`
	MemoryLimitMB int `toml:"memory_limit_mb"`
}

// LogConfig selects the slog level (debug, info, warn, error) and
// handler format (text, json).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	cfg := csvingest.DefaultProcessConfig()
	return Config{
		Runtime: RuntimeConfig{
			ThreadCount:   0,
			ChunkSize:     cfg.ChunkSize,
			MemoryLimitMB: cfg.MemoryLimitMB,
			EnableSIMD:    cfg.EnableSIMD,
			CacheSize:     cfg.CacheSize,
		},
		Streaming: StreamingConfig{
			ChunkSize:     csvingest.DefaultStreamingChunkSize,
			MemoryLimitMB: csvingest.DefaultStreamingMemoryLimitMB,
		},
		Log: LogConfig{Level: "warn", Format: "text"},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path) //nolint:gosec // Config path comes from the operator
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides cfg from CSVINGEST_* variables
func applyEnv(cfg *Config) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"CSVINGEST_THREAD_COUNT", &cfg.Runtime.ThreadCount},
		{"CSVINGEST_CHUNK_SIZE", &cfg.Runtime.ChunkSize},
		{"CSVINGEST_MEMORY_LIMIT_MB", &cfg.Runtime.MemoryLimitMB},
		{"CSVINGEST_CACHE_SIZE", &cfg.Runtime.CacheSize},
		{"CSVINGEST_STREAMING_CHUNK_SIZE", &cfg.Streaming.ChunkSize},
		{"CSVINGEST_STREAMING_MEMORY_LIMIT_MB", &cfg.Streaming.MemoryLimitMB},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}

	if v := os.Getenv("CSVINGEST_ENABLE_SIMD"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CSVINGEST_ENABLE_SIMD: %w", err)
		}
		cfg.Runtime.EnableSIMD = enabled
	}
	if v := os.Getenv("CSVINGEST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CSVINGEST_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// ConfigOptions returns the Configure options for the runtime section
func (c Config) ConfigOptions() []csvingest.ConfigOption {
	return []csvingest.ConfigOption{
		csvingest.WithThreadCount(c.Runtime.ThreadCount),
		csvingest.WithChunkSize(c.Runtime.ChunkSize),
		csvingest.WithMemoryLimitMB(c.Runtime.MemoryLimitMB),
		csvingest.WithSIMD(c.Runtime.EnableSIMD),
		csvingest.WithCacheSize(c.Runtime.CacheSize),
	}
}

// StreamingOptions returns streaming options for the streaming section
func (c Config) StreamingOptions() csvingest.StreamingOptions {
	return csvingest.DefaultStreamingOptions().
		WithChunkSize(c.Streaming.ChunkSize).
		WithMemoryLimitMB(c.Streaming.MemoryLimitMB)
}

// NewLogger builds a logger writing to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Level)}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
