package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a maintenance task at a fixed interval on a background
// goroutine. The transport pool uses it to sweep idle connection records.
type Scheduler struct {
	interval   time.Duration
	task       func()
	runAtStart bool

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithImmediateRun makes the task run once as soon as Start is called,
// before the first tick.
func WithImmediateRun() Option {
	return func(s *Scheduler) {
		s.runAtStart = true
	}
}

// New creates a Scheduler that invokes task every interval once started.
// A non-positive interval falls back to one minute.
func New(interval time.Duration, task func(), opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}

	s := &Scheduler{
		interval: interval,
		task:     task,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background loop. Calling Start on a running Scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.runAtStart {
			s.task()
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.task()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-progress task to finish.
// Calling Stop on a stopped Scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
}

// IsRunning reports whether the background loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
