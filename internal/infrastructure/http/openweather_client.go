package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/ports"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://api.openweathermap.org/data/2.5"
	units           = "metric"
	maxBodyBytes    = 1 << 20
	healthCheckCity = "London"
)

type ClientOptions struct {
	BaseURL           string
	APIKey            string
	Lang              string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

type OpenWeatherClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	lang    string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

var _ ports.WeatherProvider = (*OpenWeatherClient)(nil)

func NewOpenWeatherClient(opts ClientOptions, log logger.Logger) *OpenWeatherClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	c := &OpenWeatherClient{
		client:  &http.Client{Timeout: opts.Timeout},
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		lang:    opts.Lang,
		limiter: rate.NewLimiter(limit, opts.Burst),
		logger:  log.WithField("component", "openweather_client"),
	}

	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openweathermap",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return c
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

type forecastResponse struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type rawResponse struct {
	status int
	body   []byte
}

func (c *OpenWeatherClient) CurrentByCity(ctx context.Context, city string) (*entities.CurrentConditions, error) {
	c.logger.Debugf("Fetching current conditions for %q", city)

	var resp currentResponse
	if err := c.get(ctx, "current conditions", "/weather", url.Values{"q": {city}}, &resp); err != nil {
		return nil, err
	}
	return convertCurrent(&resp), nil
}

func (c *OpenWeatherClient) CurrentByCoordinates(ctx context.Context, coords entities.Coordinates) (*entities.CurrentConditions, error) {
	c.logger.Debugf("Fetching current conditions for %s", coords)

	params := url.Values{
		"lat": {strconv.FormatFloat(coords.Latitude, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(coords.Longitude, 'f', -1, 64)},
	}
	var resp currentResponse
	if err := c.get(ctx, "current conditions", "/weather", params, &resp); err != nil {
		return nil, err
	}
	return convertCurrent(&resp), nil
}

func (c *OpenWeatherClient) ForecastByCity(ctx context.Context, city string) ([]entities.ForecastEntry, error) {
	c.logger.Debugf("Fetching forecast for %q", city)

	var resp forecastResponse
	if err := c.get(ctx, "forecast", "/forecast", url.Values{"q": {city}}, &resp); err != nil {
		return nil, err
	}

	entries := make([]entities.ForecastEntry, 0, len(resp.List))
	for _, item := range resp.List {
		entry := entities.ForecastEntry{
			Timestamp: item.DtTxt,
			TempMin:   item.Main.TempMin,
			TempMax:   item.Main.TempMax,
		}
		if len(item.Weather) > 0 {
			entry.Description = item.Weather[0].Description
			entry.Icon = item.Weather[0].Icon
		}
		entries = append(entries, entry)
	}

	c.logger.Debugf("Received %d forecast entries for %q", len(entries), city)
	return entries, nil
}

func (c *OpenWeatherClient) HealthCheck(ctx context.Context) error {
	var resp currentResponse
	if err := c.get(ctx, "health check", "/weather", url.Values{"q": {healthCheckCity}}, &resp); err != nil {
		return fmt.Errorf("OpenWeatherMap health check failed: %w", err)
	}
	c.logger.Debug("OpenWeatherMap API health check passed")
	return nil
}

// get performs one paced, breaker-guarded GET and decodes a 2xx body into out.
// 4xx answers do not count against the breaker.
func (c *OpenWeatherClient) get(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &entities.NetworkError{Op: op, Err: err}
	}

	params.Set("appid", c.apiKey)
	params.Set("units", units)
	if c.lang != "" {
		params.Set("lang", c.lang)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return &entities.NetworkError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			// The url.Error text carries the request URL and with it the API key.
			var uerr *url.Error
			if errors.As(err, &uerr) {
				return nil, uerr.Err
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, entities.NewStatusError(op, resp.StatusCode, providerMessage(body))
		}
		return &rawResponse{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		var nerr *entities.NetworkError
		if errors.As(err, &nerr) {
			return nerr
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &entities.NetworkError{Op: op, Err: fmt.Errorf("weather service temporarily unavailable: %w", err)}
		}
		return &entities.NetworkError{Op: op, Err: err}
	}

	raw := result.(*rawResponse)
	if raw.status < http.StatusOK || raw.status >= http.StatusMultipleChoices {
		return entities.NewStatusError(op, raw.status, providerMessage(raw.body))
	}

	if err := json.Unmarshal(raw.body, out); err != nil {
		return &entities.NetworkError{Op: "decode", Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func providerMessage(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Message
}

func convertCurrent(resp *currentResponse) *entities.CurrentConditions {
	description := ""
	icon := ""
	if len(resp.Weather) > 0 {
		description = resp.Weather[0].Description
		icon = resp.Weather[0].Icon
	}

	return &entities.CurrentConditions{
		City:        resp.Name,
		Country:     resp.Sys.Country,
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		Pressure:    resp.Main.Pressure,
		TempMin:     resp.Main.TempMin,
		TempMax:     resp.Main.TempMax,
		Cloudiness:  resp.Clouds.All,
		Description: description,
		Icon:        icon,
		WindSpeed:   resp.Wind.Speed,
	}
}
