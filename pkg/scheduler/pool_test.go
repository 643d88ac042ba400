package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(slog.Default(), 2, 10)
	defer pool.Stop()

	var running, maxRunning atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		ok := pool.Submit(context.Background(), func() {
			defer wg.Done()
			current := running.Add(1)
			for {
				previous := maxRunning.Load()
				if current <= previous || maxRunning.CompareAndSwap(previous, current) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
		})
		assert.True(t, ok)
	}
	wg.Wait()
	assert.Equal(t, int32(2), maxRunning.Load())
}

func TestPoolSubmitCancelled(t *testing.T) {
	pool := NewPool(slog.Default(), 1, 0)
	release := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, pool.Submit(context.Background(), func() {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, pool.Submit(ctx, func() {}))

	close(release)
	pool.Stop()
	pool.Stop()
	assert.False(t, pool.Submit(context.Background(), func() {}))
}
