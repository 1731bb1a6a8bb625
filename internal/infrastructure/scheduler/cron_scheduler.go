package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CronScheduler runs tasks on fixed intervals. A run that is still going when
// the next tick fires causes that tick to be skipped.
type CronScheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  logger.Logger

	mu      sync.Mutex
	started bool
	cancels map[cron.EntryID]context.CancelFunc
}

var _ ports.Scheduler = (*CronScheduler)(nil)

func NewCronScheduler(timeout time.Duration, log logger.Logger) *CronScheduler {
	return &CronScheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		logger:  log.WithField("component", "cron_scheduler"),
		cancels: make(map[cron.EntryID]context.CancelFunc),
	}
}

func (s *CronScheduler) Schedule(ctx context.Context, interval time.Duration, task ports.Task) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %v", interval)
	}

	spec := "@every " + interval.String()
	s.logger.Debugf("Converted interval %v to cron expression: %s", interval, spec)

	taskCtx, cancel := context.WithCancel(ctx)
	entryID, err := s.cron.AddFunc(spec, s.wrapTask(taskCtx, task))
	if err != nil {
		cancel()
		return fmt.Errorf("failed to add cron entry %q: %w", spec, err)
	}

	s.mu.Lock()
	s.cancels[entryID] = cancel
	if !s.started {
		s.cron.Start()
		s.started = true
		s.logger.Info("Cron scheduler started")
	}
	s.mu.Unlock()

	s.logger.Infof("Task scheduled every %v with entry ID: %d", interval, entryID)
	return nil
}

func (s *CronScheduler) wrapTask(ctx context.Context, task ports.Task) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}

		startTime := time.Now()
		s.logger.Debug("Starting scheduled task")

		taskCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		if err := task(taskCtx); err != nil {
			s.logger.Errorf("Task failed: %v", err)
			return
		}

		s.logger.Debugf("Task completed successfully in %v", time.Since(startTime))
	}
}

// Stop cancels running tasks and waits for them to return.
func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler")

	s.mu.Lock()
	for entryID, cancel := range s.cancels {
		cancel()
		s.cron.Remove(entryID)
		delete(s.cancels, entryID)
	}
	started := s.started
	s.started = false
	s.mu.Unlock()

	if started {
		<-s.cron.Stop().Done()
	}

	s.logger.Info("Cron scheduler stopped")
}
