// Package scheduler runs the background publisher that pushes due scheduled
// posts out to Twitter.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher is the slice of the schedule service the scheduler needs.
type Publisher interface {
	PublishDue(ctx context.Context) (published int, err error)
}

// Scheduler polls for due posts on a fixed interval. Start/Stop are
// idempotent; Stop blocks until the worker goroutine has exited, so no tick
// is in flight after Stop returns.
type Scheduler struct {
	publisher Publisher
	interval  time.Duration
	logger    *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a Scheduler. interval must be positive; 30s is a sensible
// default for minute-granularity scheduling.
func New(publisher Publisher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		publisher: publisher,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start launches the polling goroutine.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("scheduler starting", slog.Duration("interval", s.interval))
		s.wg.Add(1)
		go s.run()
	})
}

// Stop signals the worker to exit and waits for it.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one publish pass. Each pass gets its own timeout so a hung
// Twitter call cannot stall the scheduler forever.
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	published, err := s.publisher.PublishDue(ctx)
	if err != nil {
		s.logger.Error("publish pass failed", slog.String("error", err.Error()))
		return
	}
	if published > 0 {
		s.logger.Info("publish pass completed", slog.Int("published", published))
	}
}
