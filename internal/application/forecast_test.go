package application

import (
	"testing"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(ts string, min, max float64) entities.ForecastEntry {
	return entities.ForecastEntry{Timestamp: ts, TempMin: min, TempMax: max, Description: "clear sky", Icon: "01d"}
}

func TestSelectDailyForecast(t *testing.T) {
	t.Run("keeps only the noon entry of each date", func(t *testing.T) {
		days := SelectDailyForecast([]entities.ForecastEntry{
			entry("2024-01-01 09:00:00", 1, 2),
			entry("2024-01-01 12:00:00", 3, 4),
			entry("2024-01-01 15:00:00", 5, 6),
			entry("2024-01-02 12:00:00", 7, 8),
		})

		require.Len(t, days, 2)
		assert.Equal(t, "2024-01-01", days[0].Date)
		assert.Equal(t, 3.0, days[0].TempMin)
		assert.Equal(t, 4.0, days[0].TempMax)
		assert.Equal(t, "2024-01-02", days[1].Date)
		assert.Equal(t, "clear sky", days[1].Description)
		assert.Equal(t, "01d", days[1].Icon)
	})

	t.Run("caps at five dates", func(t *testing.T) {
		var entries []entities.ForecastEntry
		for _, date := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05", "2024-03-06"} {
			entries = append(entries,
				entry(date+" 00:00:00", 0, 0),
				entry(date+" 12:00:00", 10, 20),
				entry(date+" 21:00:00", 0, 0),
			)
		}

		days := SelectDailyForecast(entries)

		require.Len(t, days, MaxForecastDays)
		assert.Equal(t, "2024-03-01", days[0].Date)
		assert.Equal(t, "2024-03-05", days[4].Date)
	})

	t.Run("first noon entry per date wins", func(t *testing.T) {
		days := SelectDailyForecast([]entities.ForecastEntry{
			entry("2024-01-01 12:00:00", 1, 1),
			entry("2024-01-01 12:00:00", 9, 9),
		})

		require.Len(t, days, 1)
		assert.Equal(t, 1.0, days[0].TempMin)
	})

	t.Run("keeps discovery order", func(t *testing.T) {
		days := SelectDailyForecast([]entities.ForecastEntry{
			entry("2024-01-03 12:00:00", 0, 0),
			entry("2024-01-01 12:00:00", 0, 0),
		})

		require.Len(t, days, 2)
		assert.Equal(t, "2024-01-03", days[0].Date)
		assert.Equal(t, "2024-01-01", days[1].Date)
	})

	t.Run("ignores near-noon and malformed timestamps", func(t *testing.T) {
		days := SelectDailyForecast([]entities.ForecastEntry{
			entry("2024-01-01 12:00:01", 0, 0),
			entry("2024-01-01T12:00:00", 0, 0),
			entry("", 0, 0),
			entry("2024-01-02 11:59:59", 0, 0),
		})

		assert.Empty(t, days)
	})

	t.Run("empty input", func(t *testing.T) {
		days := SelectDailyForecast(nil)
		assert.NotNil(t, days)
		assert.Empty(t, days)
	})
}

func TestEvaluateAdvisory(t *testing.T) {
	tests := []struct {
		temp   float64
		active bool
	}{
		{temp: 36.2, active: true},
		{temp: 34.9, active: false},
		{temp: 35.0, active: false},
		{temp: 35.01, active: true},
		{temp: -10, active: false},
	}

	for _, tt := range tests {
		advisory := EvaluateAdvisory(tt.temp, DefaultHighTemperatureThreshold)
		assert.Equal(t, tt.active, advisory.Active, "temperature %v", tt.temp)
		if tt.active {
			assert.Equal(t, "High temperature alert!", advisory.Message)
		} else {
			assert.Empty(t, advisory.Message)
		}
	}
}
