package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/internal/domain/user"
	"storefront-api/internal/logger"
	"storefront-api/pkg/utils"
)

// RequireRole lets the request through only when the session has one of
// the allowed roles. It must run after AuthMiddleware.
func RequireRole(allowedRoles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := CurrentUser(c)
		if !ok {
			logger.FromContext(c.Request.Context()).Error("Role check without an authenticated session",
				zap.String("path", c.FullPath()),
			)
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		for _, allowedRole := range allowedRoles {
			if session.Role == allowedRole {
				c.Next()
				return
			}
		}

		logger.FromContext(c.Request.Context()).Warn("Access denied",
			zap.String("user_id", session.ID.String()),
			zap.String("role", string(session.Role)),
			zap.String("path", c.FullPath()),
			zap.String("event", "access_denied"),
		)
		utils.ErrorResponse(c, http.StatusForbidden, "Forbidden")
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(user.RoleAdmin)
}
