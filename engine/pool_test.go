package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	t.Parallel()

	t.Run("positive size", func(t *testing.T) {
		t.Parallel()
		pool, err := NewPool(4)
		require.NoError(t, err)
		assert.Equal(t, 4, pool.Size())
	})

	t.Run("zero size is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewPool(0)
		require.ErrorIs(t, err, ErrInvalidPoolSize)
	})

	t.Run("negative size is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewPool(-1)
		require.ErrorIs(t, err, ErrInvalidPoolSize)
	})
}

func TestPool_GroupLimitsConcurrency(t *testing.T) {
	t.Parallel()

	pool, err := NewPool(2)
	require.NoError(t, err)

	g, _ := pool.group(context.Background())
	var running, peak atomic.Int32
	for range 10 {
		g.Go(func() error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}
