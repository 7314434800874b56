package picker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExecutorRun(t *testing.T) {
	pool := NewPoolExecutor(context.Background(), 2)
	defer pool.Stop()

	ran := false
	require.NoError(t, pool.Run(func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	boom := errors.New("boom")
	assert.ErrorIs(t, pool.Run(func() error { return boom }), boom)
}

func TestPoolExecutorRecoversPanic(t *testing.T) {
	pool := NewPoolExecutor(context.Background(), 1)
	defer pool.Stop()

	err := pool.Run(func() error { panic("kaboom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	assert.NoError(t, pool.Run(func() error { return nil }), "pool keeps working after a panic")
}

func TestPoolExecutorBoundsConcurrency(t *testing.T) {
	pool := NewPoolExecutor(context.Background(), 2)
	defer pool.Stop()

	var running, peak atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Run(func() error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-release
				running.Add(-1)
				return nil
			})
		}()
	}
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTaskQueueRunsInOrder(t *testing.T) {
	q := NewTaskQueue()
	defer q.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 20; i++ {
		require.True(t, q.Go("append", func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 20)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestTaskQueueSurvivesPanic(t *testing.T) {
	q := NewTaskQueue()
	defer q.Close()

	q.Go("panics", func() { panic("bad task") })
	ran := false
	q.Go("after", func() { ran = true })
	q.Wait()

	assert.True(t, ran)
}

func TestTaskQueueDropsAfterClose(t *testing.T) {
	q := NewTaskQueue()
	q.Close()

	assert.False(t, q.Go("late", func() { t.Error("task ran after close") }))
	q.Close()
}
