package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunOnce_RunsEveryJob(t *testing.T) {
	s := NewScheduler()

	var syncRuns, refreshRuns atomic.Int32
	s.AddJob("periodic-sync", time.Hour, func(ctx context.Context) error {
		syncRuns.Add(1)
		return nil
	})
	s.AddJob("directory-refresh", time.Hour, func(ctx context.Context) error {
		refreshRuns.Add(1)
		return errors.New("endpoint unreachable")
	})

	s.RunOnce(context.Background())

	assert.Equal(t, int32(1), syncRuns.Load())
	assert.Equal(t, int32(1), refreshRuns.Load(), "a failing job must not stop the rest")
}

func TestScheduler_Start_RunsImmediatelyAndOnInterval(t *testing.T) {
	s := NewScheduler()

	var runs atomic.Int32
	ran := make(chan struct{}, 8)
	s.AddJob("periodic-sync", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	defer s.Stop()

	// First run fires on Start, the second from the ticker.
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(time.Second):
			t.Fatal("scheduled job never ran")
		}
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestScheduler_Stop_WaitsForJobsToExit(t *testing.T) {
	s := NewScheduler()

	started := make(chan struct{})
	s.AddJob("directory-refresh", 5*time.Millisecond, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	<-started

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancelling jobs")
	}
}
