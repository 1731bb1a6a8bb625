package application

import (
	"strings"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
)

const (
	MaxForecastDays = 5
	noonTime        = "12:00:00"
)

// SelectDailyForecast reduces the provider's 3-hour list to one entry per
// date: the first entry stamped exactly 12:00:00, for at most five dates.
// Entries are taken in provider order, which is chronological.
func SelectDailyForecast(entries []entities.ForecastEntry) []entities.ForecastDay {
	days := make([]entities.ForecastDay, 0, MaxForecastDays)
	seen := make(map[string]struct{}, MaxForecastDays)

	for _, entry := range entries {
		if len(days) == MaxForecastDays {
			break
		}

		date, clock, ok := strings.Cut(entry.Timestamp, " ")
		if !ok || clock != noonTime {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}

		seen[date] = struct{}{}
		days = append(days, entities.ForecastDay{
			Date:        date,
			TempMin:     entry.TempMin,
			TempMax:     entry.TempMax,
			Description: entry.Description,
			Icon:        entry.Icon,
		})
	}

	return days
}
