package entities

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentConditions_DisplayName(t *testing.T) {
	assert.Equal(t, "London, GB", CurrentConditions{City: "London", Country: "GB"}.DisplayName())
	assert.Equal(t, "London", CurrentConditions{City: "London"}.DisplayName())
	assert.Equal(t, "Unknown", CurrentConditions{}.DisplayName())
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "https://openweathermap.org/img/wn/10n@2x.png", IconURL("10n"))
	assert.Equal(t, "https://openweathermap.org/img/wn/01d@2x.png", IconURL(""))
	assert.Equal(t, IconURL("04d"), ForecastDay{Icon: "04d"}.IconURL())
	assert.Equal(t, IconURL(""), CurrentConditions{}.IconURL())
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Light Rain", TitleCase("light rain"))
	assert.Equal(t, "Overcast Clouds", TitleCase("overcast clouds"))
	assert.Equal(t, "", TitleCase(""))
}

func TestTitleCase_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	results := make(chan string, 8*200)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				results <- TitleCase("light rain")
			}
		}()
	}
	wg.Wait()
	close(results)

	for got := range results {
		assert.Equal(t, "Light Rain", got)
	}
}

func TestCoordinates_Validate(t *testing.T) {
	tests := []struct {
		name    string
		coords  Coordinates
		wantErr string
	}{
		{name: "valid", coords: Coordinates{Latitude: 51.5, Longitude: -0.12}},
		{name: "edges", coords: Coordinates{Latitude: -90, Longitude: 180}},
		{name: "latitude too high", coords: Coordinates{Latitude: 91}, wantErr: "latitude"},
		{name: "longitude too low", coords: Coordinates{Longitude: -181}, wantErr: "longitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coords.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr ValidationError
			assert.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}

func TestUserMessage(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", UserMessage(nil))
	})

	t.Run("validation error shows reason only", func(t *testing.T) {
		assert.Equal(t, "Please enter a city name", UserMessage(ErrEmptyCity))
		assert.Equal(t, "city: Please enter a city name", ErrEmptyCity.Error())
	})

	t.Run("wrapped validation error", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", ErrEmptyCity)
		assert.Equal(t, "Please enter a city name", UserMessage(err))
	})

	t.Run("network error shows provider message", func(t *testing.T) {
		err := NewStatusError("current conditions", 404, "city not found")
		assert.Equal(t, "API returned status 404: city not found", UserMessage(err))
		assert.Equal(t, 404, err.StatusCode)
	})

	t.Run("status error without body", func(t *testing.T) {
		assert.Equal(t, "API returned status 500", NewStatusError("forecast", 500, "").Error())
	})

	t.Run("location error", func(t *testing.T) {
		err := &LocationError{Err: errors.New("rate limited")}
		assert.Equal(t, "Could not get your location", UserMessage(err))
		assert.Contains(t, err.Error(), "rate limited")
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	perr := &PersistenceError{Op: "write", Path: "history.json", Err: cause}
	assert.ErrorIs(t, perr, cause)
	assert.Equal(t, "history write history.json: disk full", perr.Error())

	nerr := &NetworkError{Op: "forecast", Err: cause}
	assert.ErrorIs(t, nerr, cause)
	assert.Equal(t, "forecast failed", (&NetworkError{Op: "forecast"}).Error())
}
