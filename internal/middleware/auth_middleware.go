package middleware

import (
	"net/http"
	"strings"

	"shuttle/internal/utils"
	"shuttle/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AdminRequired validates the bearer token and sets the admin id on the
// context. Only HS256 tokens carrying role=admin pass.
func AdminRequired(secret, issuer string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(utils.HeaderAuthorization)
		if authHeader == "" {
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateAdminToken(tokenString, secret, issuer)
		if err != nil {
			log.WithError(err).WithField("path", c.FullPath()).Warn("Rejected admin token")
			utils.UnauthorizedResponse(c)
			c.Abort()
			return
		}

		c.Set(utils.ContextKeyAdminID, claims.Subject)
		c.Next()
	}
}

// AdminID returns the authenticated admin, or "" outside admin routes.
func AdminID(c *gin.Context) string {
	return c.GetString(utils.ContextKeyAdminID)
}
