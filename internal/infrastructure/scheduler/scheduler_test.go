package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/accounting/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(config.SchedulerConfig{TimeZone: "Europe/Berlin", JobTimeout: time.Second}, nil)
	require.NoError(t, err)
	return s
}

func waitForRuns(t *testing.T, s *Scheduler, n int) []Run {
	t.Helper()
	var runs []Run
	require.Eventually(t, func() bool {
		runs = s.History(0)
		return len(runs) >= n
	}, 2*time.Second, 10*time.Millisecond)
	return runs
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(config.SchedulerConfig{TimeZone: "Mars/Olympus"}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s := newTestScheduler(t)
	err = s.Register("bad", "every day at noon", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidConfig)

	require.NoError(t, s.Register("ok", "0 2 * * *", func(context.Context) error { return nil }))
	assert.ErrorIs(t, s.Register("ok", "0 3 * * *", func(context.Context) error { return nil }), ErrInvalidConfig)
}

func TestScheduler_NextRun(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register("snapshot", "30 2 * * *", func(context.Context) error { return nil }))

	next, ok := s.NextRun("snapshot")
	require.True(t, ok)
	assert.Equal(t, 2, next.Hour())
	assert.Equal(t, 30, next.Minute())
	assert.Equal(t, "Europe/Berlin", next.Location().String())

	_, ok = s.NextRun("missing")
	assert.False(t, ok)
}

func TestScheduler_Trigger(t *testing.T) {
	ctx := context.Background()
	s := newTestScheduler(t)

	var calls atomic.Int32
	require.NoError(t, s.Register("ok", "0 2 * * *", func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, s.Register("broken", "0 3 * * *", func(context.Context) error {
		return errors.New("ledger unavailable")
	}))
	require.NoError(t, s.Register("panics", "0 4 * * *", func(context.Context) error {
		panic("boom")
	}))

	assert.ErrorIs(t, s.Trigger("ok"), ErrSchedulerNotRunning)

	s.Start(ctx)
	t.Cleanup(func() { _ = s.Stop(ctx) })

	assert.ErrorIs(t, s.Trigger("missing"), ErrJobNotFound)
	require.NoError(t, s.Trigger("ok"))
	waitForRuns(t, s, 1)
	require.NoError(t, s.Trigger("broken"))
	waitForRuns(t, s, 2)
	require.NoError(t, s.Trigger("panics"))
	runs := waitForRuns(t, s, 3)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "panics", runs[0].Job)
	assert.Equal(t, JobStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "boom")
	assert.Equal(t, "ledger unavailable", runs[1].Error)
	assert.Equal(t, JobStatusSuccess, runs[2].Status)
	assert.NotNil(t, runs[2].CompletedAt)
	assert.Len(t, s.History(1), 1)
}

func TestScheduler_NoOverlapAndStopCancels(t *testing.T) {
	ctx := context.Background()
	s := newTestScheduler(t)

	started := make(chan struct{})
	require.NoError(t, s.Register("slow", "0 2 * * *", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	s.Start(ctx)

	require.NoError(t, s.Trigger("slow"))
	<-started
	assert.ErrorIs(t, s.Trigger("slow"), ErrJobAlreadyRunning)

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	runs := s.History(0)
	require.Len(t, runs, 1)
	assert.Equal(t, JobStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "context canceled")
}
