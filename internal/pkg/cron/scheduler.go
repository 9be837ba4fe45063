package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type job struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// Scheduler runs the agent's background jobs, the periodic sync trigger and
// the directory refresh, each on its own ticker. Jobs run once immediately on
// Start so a freshly booted device does not wait a full interval.
type Scheduler struct {
	jobs   []job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
	slog.Info("Background job registered", "name", name, "interval", interval)
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runJob(j)
	}

	slog.Info("Scheduler started", "job_count", len(s.jobs))
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) runJob(j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.executeJob(j)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Background job stopping", "name", j.name)
			return
		case <-ticker.C:
			s.executeJob(j)
		}
	}
}

func (s *Scheduler) executeJob(j job) {
	start := time.Now()

	if err := j.fn(s.ctx); err != nil {
		slog.Error("Background job failed", "name", j.name, "error", err, "duration", time.Since(start))
	} else {
		slog.Debug("Background job completed", "name", j.name, "duration", time.Since(start))
	}
}

// RunOnce runs every registered job once, synchronously, without starting
// tickers. A job error is logged, not returned; later jobs still run.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if err := j.fn(ctx); err != nil {
			slog.Error("Background job failed", "name", j.name, "error", err)
		}
	}
}
