package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-api/internal/domain/user"
	"storefront-api/internal/logger"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

const sessionKey = "session"

// SessionResolver loads the current state of a token subject. It fails
// with appErrors.ErrUserNotFound for absent and inactive accounts.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID uuid.UUID) (*user.SessionUser, error)
}

// AuthMiddleware authenticates the bearer token and attaches the live
// session of its subject. The account is re-read on every request, so a
// deactivation takes effect immediately.
func AuthMiddleware(tokens *utils.TokenManager, resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token, ok := utils.ExtractBearerToken(authHeader)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := tokens.Verify(token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := c.Request.Context()
		session, err := resolver.ResolveSession(ctx, claims.UserID)
		if err != nil {
			if !errors.Is(err, appErrors.ErrUserNotFound) {
				logger.FromContext(ctx).Error("Failed to resolve session",
					zap.String("user_id", claims.UserID.String()),
					zap.Error(err),
				)
			}
			utils.ErrorResponse(c, http.StatusUnauthorized, "User not found or inactive")
			return
		}

		c.Set(sessionKey, session)
		c.Request = c.Request.WithContext(user.WithSession(ctx, session))

		c.Next()
	}
}

// CurrentUser returns the session attached by AuthMiddleware.
func CurrentUser(c *gin.Context) (*user.SessionUser, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := v.(*user.SessionUser)
	return session, ok && session != nil
}
