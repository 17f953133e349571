// internal/app/system/workers/scheduler.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per run; defaults to 30s
	Run      func(ctx context.Context) error
}

// Scheduler runs each registered Job on its own ticker until Stop.
type Scheduler struct {
	jobs    []Job
	metrics *metrics.Registry
	log     *zap.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. reg may be nil.
func NewScheduler(reg *metrics.Registry, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		metrics: reg,
		log:     logger,
		stopCh:  make(chan struct{}),
	}
}

// Add registers j. Jobs with a non-positive interval are skipped, which
// is how a job is disabled from config.
func (s *Scheduler) Add(j Job) {
	if j.Interval <= 0 {
		s.log.Info("background job disabled", zap.String("job", j.Name))
		return
	}
	if j.Timeout <= 0 {
		j.Timeout = 30 * time.Second
	}
	s.jobs = append(s.jobs, j)
}

// Start begins one loop per job.
func (s *Scheduler) Start() {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(j)
		s.log.Info("background job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every loop to exit and waits for in-flight runs.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("background jobs stopped")
}

func (s *Scheduler) loop(j Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(j)
		}
	}
}

// RunOnce executes j a single time with its timeout and records the outcome.
func (s *Scheduler) RunOnce(j Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	err := j.Run(ctx)
	s.metrics.WorkerRun(j.Name, err)
	if err != nil {
		s.log.Error("background job failed", zap.String("job", j.Name), zap.Error(err))
	}
	return err
}
