package application

import "github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"

const (
	DefaultHighTemperatureThreshold = 35.0
	highTemperatureMessage          = "High temperature alert!"
)

// EvaluateAdvisory is active only when the temperature strictly exceeds the threshold.
func EvaluateAdvisory(temperature, threshold float64) entities.Advisory {
	if temperature > threshold {
		return entities.Advisory{Active: true, Message: highTemperatureMessage}
	}
	return entities.Advisory{}
}
