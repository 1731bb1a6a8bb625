package entities

import (
	"time"

	"github.com/google/uuid"
)

type LookupKind string

const (
	LookupByCity        LookupKind = "city"
	LookupByCoordinates LookupKind = "coordinates"
	LookupByLocation    LookupKind = "location"
)

// LookupEvent describes one finished lookup for downstream consumers.
type LookupEvent struct {
	ID           uuid.UUID  `json:"id"`
	Kind         LookupKind `json:"kind"`
	Query        string     `json:"query"`
	Success      bool       `json:"success"`
	City         string     `json:"city,omitempty"`
	Country      string     `json:"country,omitempty"`
	Temperature  float64    `json:"temperature,omitempty"`
	Advisory     bool       `json:"advisory,omitempty"`
	ForecastDays int        `json:"forecast_days,omitempty"`
	Error        string     `json:"error,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
