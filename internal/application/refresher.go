package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

// Refresher periodically repeats the lookup for the most recently searched city.
type Refresher struct {
	workflow  *Workflow
	scheduler ports.Scheduler
	logger    logger.Logger
}

func NewRefresher(workflow *Workflow, scheduler ports.Scheduler, log logger.Logger) *Refresher {
	return &Refresher{
		workflow:  workflow,
		scheduler: scheduler,
		logger:    log.WithField("component", "refresher"),
	}
}

func (r *Refresher) Start(ctx context.Context, interval time.Duration) error {
	if err := r.scheduler.Schedule(ctx, interval, r.Refresh); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	r.logger.Infof("Refreshing most recent city every %v", interval)
	return nil
}

func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

// Refresh is a no-op with an empty history or while a user lookup is running.
func (r *Refresher) Refresh(ctx context.Context) error {
	history := r.workflow.History()
	if len(history) == 0 {
		r.logger.Debug("Nothing to refresh, history is empty")
		return nil
	}

	city := history[0]
	_, err := r.workflow.LookupByCity(ctx, city)
	if errors.Is(err, entities.ErrLookupInProgress) {
		r.logger.Debugf("Skipping refresh of %q, a lookup is running", city)
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh %q: %w", city, err)
	}
	return nil
}
