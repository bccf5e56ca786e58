package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/fairmart/viewtrack/utils"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops; long jobs should honor it.
type Job func(ctx context.Context)

type scheduledJob struct {
	name     string
	interval time.Duration
	fn       Job
}

// Scheduler owns the process-wide timers for the rollup aggregator and the
// retention reaper. It is an explicit object with a lifecycle: construct,
// Add jobs, Start once, Stop on shutdown. Stop cancels every job's context
// and blocks until all job goroutines have returned.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []scheduledJob
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers a job to run every interval. Must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, fn Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || interval <= 0 || fn == nil {
		return
	}
	s.jobs = append(s.jobs, scheduledJob{name: name, interval: interval, fn: fn})
}

// Start launches one goroutine per job. The first tick fires after one full
// interval; jobs needing an immediate run are triggered via the admin API.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	if utils.Sugar != nil {
		utils.Sugar.Infof("scheduler started jobs=%d", len(s.jobs))
	}
}

// Stop cancels all jobs and waits for them to exit. Safe to call more than
// once; only the first call does work.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.cancel == nil {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	if utils.Sugar != nil {
		utils.Sugar.Info("scheduler stopped")
	}
}

func (s *Scheduler) loop(ctx context.Context, j scheduledJob) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A pending tick can win the select over a cancelled context;
			// never run a job after Stop.
			if ctx.Err() != nil {
				return
			}
			j.fn(ctx)
		}
	}
}
