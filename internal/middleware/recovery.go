package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/chalense/muni-laip/internal/pkg"
)

// RecoveryMiddleware turns panics into 500 responses instead of dropped
// connections.
type RecoveryMiddleware struct {
	logger *pkg.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware(logger *pkg.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger}
}

// Handler returns the gin middleware function
func (m *RecoveryMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := map[string]interface{}{
					"panic":  r,
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"stack":  string(debug.Stack()),
				}
				if requestID, exists := c.Get("request_id"); exists {
					fields["request_id"] = requestID
				}
				m.logger.Error("panic recovered", fields)

				pkg.InternalServerErrorResponse(c, "Internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
