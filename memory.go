package csvingest

import (
	"math"
	"runtime"
)

// Memory estimation constants
const (
	// bytesPerMB converts bytes to megabytes
	bytesPerMB = 1024 * 1024
	// memoryExpansionFactor is the assumed peak footprint relative to the file size
	memoryExpansionFactor = 2
	// defaultWarningThreshold is the heap share of the ceiling that triggers a warning
	defaultWarningThreshold = 0.8
)

// EstimateMemoryMB returns the estimated peak memory in MB needed to ingest a
// file of sizeBytes bytes. The estimate is twice the file size, rounded down.
func EstimateMemoryMB(sizeBytes int64) int64 {
	return sizeBytes * memoryExpansionFactor / bytesPerMB
}

// ExceedsLimit reports whether an estimate is strictly above the limit
func ExceedsLimit(estimatedMB, limitMB int64) bool {
	return estimatedMB > limitMB
}

// MemoryStatus represents the heap usage relative to the memory ceiling
type MemoryStatus int

// Memory status constants
const (
	// MemoryStatusOK indicates memory usage is within acceptable limits
	MemoryStatusOK MemoryStatus = iota
	// MemoryStatusWarning indicates memory usage is approaching the limit
	MemoryStatusWarning
	// MemoryStatusExceeded indicates memory usage has exceeded the limit
	MemoryStatusExceeded
)

// String returns string representation of memory status
func (ms MemoryStatus) String() string {
	switch ms {
	case MemoryStatusOK:
		return "OK"
	case MemoryStatusWarning:
		return "WARNING"
	case MemoryStatusExceeded:
		return "EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// MemoryInfo contains detailed memory usage information
type MemoryInfo struct {
	CurrentMB int64        // Current heap usage in MB
	LimitMB   int64        // Memory limit in MB
	Usage     float64      // Usage share of the limit
	Status    MemoryStatus // Current status
}

// newMemoryInfo classifies a heap size against a ceiling
func newMemoryInfo(heapAllocBytes uint64, limitMB int64) MemoryInfo {
	heapAllocMB := heapAllocBytes / bytesPerMB
	var currentMB int64
	if heapAllocMB > uint64(math.MaxInt64) {
		currentMB = math.MaxInt64
	} else {
		currentMB = int64(heapAllocMB)
	}

	info := MemoryInfo{CurrentMB: currentMB, LimitMB: limitMB}
	if limitMB <= 0 {
		return info
	}

	info.Usage = float64(currentMB) / float64(limitMB)
	switch {
	case currentMB >= limitMB:
		info.Status = MemoryStatusExceeded
	case info.Usage >= defaultWarningThreshold:
		info.Status = MemoryStatusWarning
	default:
		info.Status = MemoryStatusOK
	}
	return info
}

// readMemoryInfo takes a heap snapshot.
//
// Performance Note: runtime.ReadMemStats can pause for milliseconds, so it is
// called once per ingestion, never per chunk.
func readMemoryInfo(limitMB int64) MemoryInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	return newMemoryInfo(memStats.HeapAlloc, limitMB)
}
