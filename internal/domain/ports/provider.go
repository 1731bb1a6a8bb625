package ports

import (
	"context"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
)

// WeatherProvider is the remote source of current conditions and the raw
// 5-day/3-hour forecast.
type WeatherProvider interface {
	CurrentByCity(ctx context.Context, city string) (*entities.CurrentConditions, error)
	CurrentByCoordinates(ctx context.Context, coords entities.Coordinates) (*entities.CurrentConditions, error)
	ForecastByCity(ctx context.Context, city string) ([]entities.ForecastEntry, error)
	HealthCheck(ctx context.Context) error
}

type Geolocator interface {
	Locate(ctx context.Context) (entities.Coordinates, error)
}
