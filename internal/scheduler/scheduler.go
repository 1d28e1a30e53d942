// Package scheduler runs Edison's background maintenance jobs — today
// just the session staleness sweep — each on its own ticker, started
// by `edison session daemon` and stopped cleanly on shutdown.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic unit of work, e.g. session.SweepJob.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs a fixed set of jobs, each on its own interval.
type Scheduler struct {
	logger *slog.Logger
	jobs   []scheduledJob
	wg     sync.WaitGroup
	stopOnce sync.Once
}

type scheduledJob struct {
	job      Job
	interval time.Duration
	stop     chan struct{}
}

// NewScheduler creates a scheduler that logs job lifecycle and
// failures through logger.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// AddJob registers job to run every interval once Start is called.
// Must be called before Start.
func (s *Scheduler) AddJob(job Job, interval time.Duration) {
	s.jobs = append(s.jobs, scheduledJob{job: job, interval: interval, stop: make(chan struct{})})
}

// Start launches one ticker goroutine per registered job. It returns
// immediately; jobs keep running until ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	for i := range s.jobs {
		sj := &s.jobs[i]
		s.wg.Add(1)
		go s.run(ctx, sj)
	}
}

func (s *Scheduler) run(ctx context.Context, sj *scheduledJob) {
	defer s.wg.Done()
	ticker := time.NewTicker(sj.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler: starting job", "job", sj.job.Name(), "interval", sj.interval)
	for {
		select {
		case <-ticker.C:
			s.logger.Debug("scheduler: running job", "job", sj.job.Name())
			if err := sj.job.Run(ctx); err != nil {
				s.logger.Error("scheduler: job failed", "job", sj.job.Name(), "err", err)
			}
		case <-sj.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals every job's goroutine to exit and waits for them to
// drain. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		for i := range s.jobs {
			close(s.jobs[i].stop)
		}
	})
	s.wg.Wait()
	s.logger.Info("scheduler: stopped")
}
