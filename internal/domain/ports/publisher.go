package ports

import (
	"context"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
)

type EventPublisher interface {
	Publish(ctx context.Context, event entities.LookupEvent) error
	HealthCheck(ctx context.Context) error
	Close() error
}
