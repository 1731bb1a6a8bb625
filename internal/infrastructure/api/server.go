package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/config"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
)

type APIServer struct {
	server     *http.Server
	router     *gin.Engine
	handler    *APIHandler
	middleware *Middleware
	config     config.APIConfig
	logger     logger.Logger
}

func NewAPIServer(handler *APIHandler, middleware *Middleware, cfg config.APIConfig, env string, log logger.Logger) *APIServer {
	switch env {
	case "development":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		router:     gin.New(),
		handler:    handler,
		middleware: middleware,
		config:     cfg,
		logger:     log.WithField("component", "api_server"),
	}
	s.setupRoutes()
	return s
}

func (s *APIServer) setupRoutes() {
	s.router.Use(s.middleware.Recovery())
	s.router.Use(s.middleware.Logging())
	s.router.Use(s.middleware.CORS())
	s.router.Use(s.middleware.RateLimit())

	api := s.router.Group(s.config.BasePath)
	api.Use(s.middleware.NoCache())

	api.GET("/health", s.handler.HealthCheck)
	api.GET("/history", s.handler.GetHistory)
	api.GET("/state", s.handler.GetState)

	weather := api.Group("/weather")
	{
		weather.GET("", s.handler.GetWeather)
		weather.GET("/coordinates", s.handler.GetWeatherByCoordinates)
		weather.GET("/here", s.handler.GetWeatherHere)
		weather.GET("/export", s.handler.ExportWeather)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": fmt.Sprintf("Route %s not found", c.Request.URL.Path),
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start binds the port and serves in the background. Bind errors are returned.
func (s *APIServer) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	go func() {
		s.logger.Infof("Starting API server on port %d", s.config.Port)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("API server stopped unexpectedly: %v", err)
		}
	}()

	return nil
}

func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}
