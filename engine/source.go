package engine

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/csvingest/domain/model"
	"github.com/ulikunitz/xz"
)

// readBufferSize is the buffered reader size for regular reads
const readBufferSize = 256 * 1024

// lowMemoryReadBufferSize is the buffered reader size in low-memory mode
const lowMemoryReadBufferSize = 32 * 1024

// openSource opens path and wraps it with a decompressor chosen by extension.
// The returned cleanup closes both the decompressor and the file.
func openSource(path string, lowMemory bool) (io.Reader, func() error, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, nil, err
	}

	reader, cleanup, err := decompress(file, model.CompressionFromPath(path))
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	size := readBufferSize
	if lowMemory {
		size = lowMemoryReadBufferSize
	}

	compositeCleanup := func() error {
		cleanupErr := cleanup()
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}
	return bufio.NewReaderSize(reader, size), compositeCleanup, nil
}

// decompress wraps reader with a decompression reader for the compression type
func decompress(reader io.Reader, compression model.CompressionType) (io.Reader, func() error, error) {
	switch compression {
	case model.CompressionNone:
		return reader, func() error { return nil }, nil

	case model.CompressionGZ:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case model.CompressionBZ2:
		// bzip2.NewReader doesn't need closing
		return bzip2.NewReader(reader), func() error { return nil }, nil

	case model.CompressionXZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		// xz.Reader doesn't have a Close method
		return xzReader, func() error { return nil }, nil

	case model.CompressionZSTD:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", compression)
	}
}

// Open opens path for reading and decompresses it by extension. The caller
// must call the returned cleanup.
func Open(path string) (io.Reader, func() error, error) {
	return openSource(path, true)
}
