package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_RunsImmediatelyAndOnTicker(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var calls atomic.Int32
	s.RegisterJob("tick", 20*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)

	n := calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
}

func TestScheduler_NoOverlap(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var running, maxRunning, calls atomic.Int32
	s.RegisterJob("slow", 5*time.Millisecond, func(ctx context.Context) error {
		cur := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if cur <= m || maxRunning.CompareAndSwap(m, cur) {
				break
			}
		}
		calls.Add(1)
		time.Sleep(30 * time.Millisecond)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)
	assert.Equal(t, int32(1), maxRunning.Load())
}

func TestScheduler_ErrorDoesNotStopJob(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var calls atomic.Int32
	s.RegisterJob("failing", 10*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)
}

func TestScheduler_WithTimeout(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	done := make(chan error, 1)
	s.RegisterJob("bounded", time.Hour, func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}, WithTimeout(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled by its timeout")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	s.Stop(stopCtx)
}

func TestScheduler_InvalidIntervalFallsBack(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	s.RegisterJob("zero", 0, func(ctx context.Context) error { return nil })
	assert.Equal(t, DefaultInterval, s.jobs["zero"].interval)
}
