package ports

import (
	"context"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
)

// ReportInput is everything a finished city lookup produced.
type ReportInput struct {
	Current  entities.CurrentConditions
	Forecast []entities.ForecastDay
	Advisory entities.Advisory
	History  []string
}

type ReportGenerator interface {
	Generate(ctx context.Context, input ReportInput) ([]byte, error)
}
