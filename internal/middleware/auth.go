package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/chalense/muni-laip/internal/pkg"
)

// AuthMiddleware guards the staff surface with JWT bearer tokens.
type AuthMiddleware struct {
	jwtManager *pkg.JWTManager
	logger     *pkg.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtManager *pkg.JWTManager, logger *pkg.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// RequireStaff validates the bearer token and requires the staff role.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			pkg.UnauthorizedResponse(c, "Authorization header required")
			c.Abort()
			return
		}

		token := pkg.ExtractTokenFromHeader(authHeader)
		if token == "" {
			pkg.UnauthorizedResponse(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.Verify(token)
		if err != nil {
			m.logger.Warn("staff token rejected", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			pkg.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		if claims.Role != pkg.StaffRole {
			pkg.ForbiddenResponse(c, "Staff privileges required")
			c.Abort()
			return
		}

		c.Set("staff_email", claims.Email)
		c.Next()
	}
}
