package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const DefaultGeolocationURL = "https://ipapi.co/json/"

// IPAPILocator resolves the caller's approximate position from its public IP.
type IPAPILocator struct {
	client *http.Client
	url    string
	logger logger.Logger
}

var _ ports.Geolocator = (*IPAPILocator)(nil)

func NewIPAPILocator(endpoint string, timeout time.Duration, log logger.Logger) *IPAPILocator {
	if endpoint == "" {
		endpoint = DefaultGeolocationURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IPAPILocator{
		client: &http.Client{Timeout: timeout},
		url:    endpoint,
		logger: log.WithField("component", "ipapi_locator"),
	}
}

type ipapiResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

func (l *IPAPILocator) Locate(ctx context.Context) (entities.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return entities.Coordinates{}, &entities.LocationError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return entities.Coordinates{}, &entities.LocationError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.Coordinates{}, &entities.LocationError{Err: fmt.Errorf("geolocation returned status %d", resp.StatusCode)}
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return entities.Coordinates{}, &entities.LocationError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if body.Error {
		return entities.Coordinates{}, &entities.LocationError{Err: fmt.Errorf("geolocation refused: %s", body.Reason)}
	}
	if body.Latitude == nil || body.Longitude == nil {
		return entities.Coordinates{}, &entities.LocationError{Err: errors.New("response has no coordinates")}
	}

	coords := entities.Coordinates{Latitude: *body.Latitude, Longitude: *body.Longitude}
	if err := coords.Validate(); err != nil {
		return entities.Coordinates{}, &entities.LocationError{Err: err}
	}

	l.logger.Debugf("Located caller near %s (%s)", body.City, coords)
	return coords, nil
}
