package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/k-shtanenko/weather-app/weather-lookup/internal/pkg/logger"
	"golang.org/x/time/rate"
)

type Middleware struct {
	logger      logger.Logger
	rateLimiter *rate.Limiter
}

// NewMiddleware allows rateLimit requests per rateWindow across all clients.
func NewMiddleware(rateLimit int, rateWindow time.Duration, log logger.Logger) *Middleware {
	limit := rate.Inf
	if rateLimit > 0 && rateWindow > 0 {
		limit = rate.Every(rateWindow / time.Duration(rateLimit))
	}
	if rateLimit <= 0 {
		rateLimit = 1
	}
	return &Middleware{
		logger:      log.WithField("component", "middleware"),
		rateLimiter: rate.NewLimiter(limit, rateLimit),
	}
}

func (m *Middleware) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (m *Middleware) Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log := m.logger.WithFields(map[string]interface{}{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
			"method":  c.Request.Method,
			"path":    path,
		})

		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				log.Error(e)
			}
			return
		}
		log.Info("HTTP request")
	}
}

func (m *Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.rateLimiter.Allow() {
			m.logger.Warnf("Rate limit exceeded for IP: %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   http.StatusText(http.StatusTooManyRequests),
				Message: "Rate limit exceeded",
				Time:    time.Now(),
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Cache-Control", "no-store")
		c.Next()
	}
}

func (m *Middleware) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.Errorf("Panic recovered: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:   http.StatusText(http.StatusInternalServerError),
					Message: "An unexpected error occurred",
					Time:    time.Now(),
				})
			}
		}()
		c.Next()
	}
}
