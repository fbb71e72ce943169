package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/freecs/freecs-api/internal/models"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
	"github.com/freecs/freecs-api/pkg/response"
)

// RequireInstructor blocks callers whose token does not belong to an
// instructor member. Must run after JWT.
func RequireInstructor() gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !claims.IsInstructor {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only instructors can create courses"))
			c.Abort()
			return
		}

		c.Next()
	}
}
