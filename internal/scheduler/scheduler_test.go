package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilrun/vigil/internal/scheduler"
)

func TestSchedulerRunsTicksOnInterval(t *testing.T) {
	var count atomic.Int32
	s := scheduler.New(nil, 20*time.Millisecond, func(ctx context.Context) error {
		count.Add(1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(90 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, count.Load(), int32(3))
}

func TestSchedulerSkipsOverlappingTickAndMarksOverdue(t *testing.T) {
	release := make(chan struct{})
	var count atomic.Int32

	s := scheduler.New(nil, 10*time.Millisecond, func(ctx context.Context) error {
		count.Add(1)
		<-release
		return nil
	})

	s.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	assert.True(t, s.Overdue())
	close(release)
	s.Stop()

	require.Equal(t, int32(1), count.Load())
}

func TestTriggerNowRunsTickImmediately(t *testing.T) {
	var count atomic.Int32
	s := scheduler.New(nil, time.Hour, func(ctx context.Context) error {
		count.Add(1)
		return nil
	})

	ran, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int32(1), count.Load())
}

func TestTriggerNowReportsBusyWhenLockIsHeld(t *testing.T) {
	release := make(chan struct{})
	var count atomic.Int32

	s := scheduler.New(nil, time.Hour, func(ctx context.Context) error {
		count.Add(1)
		<-release
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.TriggerNow(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	ran, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	assert.False(t, ran, "a concurrent TriggerNow must not run while the lock is held")

	close(release)
	<-done
	assert.Equal(t, int32(1), count.Load())
}
