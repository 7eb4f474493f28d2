package guard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	g := New()
	assert.False(t, g.Held())

	release, err := g.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, g.Held())

	release()
	assert.False(t, g.Held())

	// second release is a no-op and must not free a token someone else holds
	again, err := g.Acquire(context.Background())
	require.NoError(t, err)
	release()
	assert.True(t, g.Held())
	again()
	assert.False(t, g.Held())
}

func TestSecondCallerBlocksUntilRelease(t *testing.T) {
	g := New()
	release, err := g.Acquire(context.Background())
	require.NoError(t, err)

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		r, err := g.Acquire(context.Background())
		if err != nil {
			return
		}
		acquired.Store(true)
		r()
	}()

	assert.Never(t, acquired.Load, 50*time.Millisecond, 5*time.Millisecond)
	release()
	<-done
	assert.True(t, acquired.Load())
}

func TestAcquireHonoursContext(t *testing.T) {
	g := New()
	release, err := g.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, g.Held())
}

func TestMutualExclusion(t *testing.T) {
	g := New()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(context.Background())
			if err != nil {
				return
			}
			defer release()

			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestNilGuard(t *testing.T) {
	var g *Guard
	_, err := g.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrNilGuard)
}
