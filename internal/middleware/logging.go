package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chalense/muni-laip/internal/pkg"
)

// LoggingMiddleware logs one line per request.
type LoggingMiddleware struct {
	logger    *pkg.Logger
	skipPaths map[string]bool
}

// NewLoggingMiddleware creates a new logging middleware. skipPaths lists
// paths, such as health checks, that should not be logged.
func NewLoggingMiddleware(logger *pkg.Logger, skipPaths ...string) *LoggingMiddleware {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &LoggingMiddleware{logger: logger, skipPaths: skip}
}

// Handler returns the gin middleware function
func (m *LoggingMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": duration.String(),
			"ip":       c.ClientIP(),
		}
		if requestID, exists := c.Get("request_id"); exists {
			fields["request_id"] = requestID
		}

		switch {
		case c.Writer.Status() >= 500:
			m.logger.Error("request completed", fields)
		case c.Writer.Status() >= 400:
			m.logger.Warn("request completed", fields)
		default:
			m.logger.Info("request completed", fields)
		}
	}
}
