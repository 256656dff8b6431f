package csvingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMemoryMB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sizeBytes int64
		want      int64
	}{
		{name: "empty", sizeBytes: 0, want: 0},
		{name: "half a megabyte doubles to one", sizeBytes: bytesPerMB / 2, want: 1},
		{name: "just below half a megabyte", sizeBytes: bytesPerMB/2 - 1, want: 0},
		{name: "one megabyte", sizeBytes: bytesPerMB, want: 2},
		{name: "one gigabyte", sizeBytes: 1024 * bytesPerMB, want: 2048},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateMemoryMB(tt.sizeBytes), tt.name)
	}
}

func TestExceedsLimit(t *testing.T) {
	t.Parallel()

	assert.False(t, ExceedsLimit(1024, 1024), "equal is within the limit")
	assert.True(t, ExceedsLimit(1025, 1024))
	assert.False(t, ExceedsLimit(0, 1))

	// Monotonic in the limit
	for limit := int64(1); limit < 10; limit++ {
		if !ExceedsLimit(5, limit) {
			assert.False(t, ExceedsLimit(5, limit+1))
		}
	}
}

func TestNewMemoryInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		heapBytes uint64
		limitMB   int64
		want      MemoryStatus
		usage     float64
	}{
		{name: "well below", heapBytes: 100 * bytesPerMB, limitMB: 1000, want: MemoryStatusOK, usage: 0.1},
		{name: "warning at 80 percent", heapBytes: 800 * bytesPerMB, limitMB: 1000, want: MemoryStatusWarning, usage: 0.8},
		{name: "exceeded at the limit", heapBytes: 1000 * bytesPerMB, limitMB: 1000, want: MemoryStatusExceeded, usage: 1},
		{name: "no limit", heapBytes: 5000 * bytesPerMB, limitMB: 0, want: MemoryStatusOK, usage: 0},
	}
	for _, tt := range tests {
		info := newMemoryInfo(tt.heapBytes, tt.limitMB)
		assert.Equal(t, tt.want, info.Status, tt.name)
		assert.InDelta(t, tt.usage, info.Usage, 1e-9, tt.name)
		assert.Equal(t, tt.limitMB, info.LimitMB, tt.name)
	}
}

func TestMemoryStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "OK", MemoryStatusOK.String())
	assert.Equal(t, "WARNING", MemoryStatusWarning.String())
	assert.Equal(t, "EXCEEDED", MemoryStatusExceeded.String())
	assert.Equal(t, "UNKNOWN", MemoryStatus(99).String())
}

func TestReadMemoryInfo(t *testing.T) {
	t.Parallel()

	info := readMemoryInfo(1 << 20)
	assert.Equal(t, MemoryStatusOK, info.Status)
	assert.GreaterOrEqual(t, info.CurrentMB, int64(0))
}
