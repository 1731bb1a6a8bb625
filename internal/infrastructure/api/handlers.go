package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/application"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/domain/entities"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LookupService interface {
	LookupByCity(ctx context.Context, query string) (application.State, error)
	LookupByCoordinates(ctx context.Context, coords entities.Coordinates) (application.State, error)
	LookupCurrentLocation(ctx context.Context) (application.State, error)
	Snapshot() application.State
	History() []string
}

type ReportExporter interface {
	Export(ctx context.Context, city string) ([]byte, string, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type ErrorResponse struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Time     time.Time         `json:"time"`
	Services map[string]string `json:"services"`
}

type HistoryResponse struct {
	History []string `json:"history"`
}

type APIHandler struct {
	lookups LookupService
	reports ReportExporter
	checks  map[string]HealthChecker
	version string
	logger  logger.Logger
}

func NewAPIHandler(lookups LookupService, reports ReportExporter, checks map[string]HealthChecker, version string, log logger.Logger) *APIHandler {
	return &APIHandler{
		lookups: lookups,
		reports: reports,
		checks:  checks,
		version: version,
		logger:  log.WithField("component", "api_handler"),
	}
}

// GetWeather handles GET /weather?city=.
func (h *APIHandler) GetWeather(c *gin.Context) {
	state, err := h.lookups.LookupByCity(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetWeatherByCoordinates handles GET /weather/coordinates?lat=&lon=.
func (h *APIHandler) GetWeatherByCoordinates(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		h.respondError(c, http.StatusBadRequest, "lat and lon must be decimal numbers")
		return
	}

	state, err := h.lookups.LookupByCoordinates(c.Request.Context(), entities.Coordinates{Latitude: lat, Longitude: lon})
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetWeatherHere handles GET /weather/here.
func (h *APIHandler) GetWeatherHere(c *gin.Context) {
	state, err := h.lookups.LookupCurrentLocation(c.Request.Context())
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ExportWeather handles GET /weather/export?city= and returns an XLSX workbook.
func (h *APIHandler) ExportWeather(c *gin.Context) {
	data, name, err := h.reports.Export(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *APIHandler) GetHistory(c *gin.Context) {
	history := h.lookups.History()
	if history == nil {
		history = []string{}
	}
	c.JSON(http.StatusOK, HistoryResponse{History: history})
}

func (h *APIHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.lookups.Snapshot())
}

func (h *APIHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	health := HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Time:     time.Now(),
		Services: map[string]string{"api": "healthy"},
	}

	for name, checker := range h.checks {
		if err := checker.HealthCheck(ctx); err != nil {
			health.Status = "degraded"
			health.Services[name] = fmt.Sprintf("unhealthy: %v", err)
			continue
		}
		health.Services[name] = "healthy"
	}

	c.JSON(http.StatusOK, health)
}

func (h *APIHandler) respondLookupError(c *gin.Context, err error) {
	h.respondError(c, statusFor(err), entities.UserMessage(err))
}

func (h *APIHandler) respondError(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("HTTP %d: %s", status, message)
	} else {
		h.logger.Warnf("HTTP %d: %s", status, message)
	}
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Time:    time.Now(),
	})
}

// statusFor maps lookup errors onto HTTP status codes. A provider 404 means
// the city does not exist and is passed through.
func statusFor(err error) int {
	var (
		verr entities.ValidationError
		lerr *entities.LocationError
		nerr *entities.NetworkError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrLookupInProgress):
		return http.StatusConflict
	case errors.As(err, &lerr):
		return http.StatusBadGateway
	case errors.As(err, &nerr):
		if nerr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
