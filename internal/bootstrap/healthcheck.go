package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

// Dependency is one external service verified by the check command.
type Dependency struct {
	Name  string
	Check func(context.Context) error
}

type HealthChecker struct {
	deps          []Dependency
	timeout       time.Duration
	retryInterval time.Duration
	maxRetries    int
	logger        logger.Logger
}

func NewHealthChecker(deps []Dependency, timeout, retryInterval time.Duration, maxRetries int, log logger.Logger) *HealthChecker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HealthChecker{
		deps:          deps,
		timeout:       timeout,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
		logger:        log.WithField("component", "health_checker"),
	}
}

// CheckAll verifies every dependency in order and stops at the first one
// that keeps failing after all retries.
func (h *HealthChecker) CheckAll(ctx context.Context) error {
	h.logger.Info("Starting health checks for all dependencies")

	for _, dep := range h.deps {
		if err := h.checkWithRetry(ctx, dep); err != nil {
			return fmt.Errorf("%s health check failed: %w", dep.Name, err)
		}
	}

	h.logger.Info("All health checks passed successfully")
	return nil
}

func (h *HealthChecker) checkWithRetry(ctx context.Context, dep Dependency) error {
	var lastErr error

	for i := 0; i < h.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.logger.Debugf("Checking %s (attempt %d/%d)", dep.Name, i+1, h.maxRetries)

		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := dep.Check(checkCtx)
		cancel()

		if err == nil {
			h.logger.Infof("%s health check passed", dep.Name)
			return nil
		}

		lastErr = err
		h.logger.Warnf("%s health check failed (attempt %d/%d): %v", dep.Name, i+1, h.maxRetries, err)

		if i < h.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.retryInterval):
			}
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", h.maxRetries, lastErr)
}
