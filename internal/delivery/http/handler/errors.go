package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-api/internal/logger"
	"storefront-api/internal/middleware"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

// respondWithError is the single place where an error becomes a status
// code and an envelope.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, appErrors.ErrUserAlreadyExists):
		utils.ErrorResponse(c, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, appErrors.ErrUnknownEmail):
		utils.ErrorResponse(c, http.StatusBadRequest, "User with this email does not exist")
	case errors.Is(err, appErrors.ErrResetTokenInvalid):
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, appErrors.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, appErrors.ErrInvalidCurrentPassword):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, appErrors.ErrUserInactive):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Account is deactivated")
	case errors.Is(err, appErrors.ErrInvalidToken):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, appErrors.ErrUnauthorized):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, appErrors.ErrInsufficientPermissions):
		utils.ErrorResponse(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, appErrors.ErrUserNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "User not found")
	case errors.Is(err, appErrors.ErrAddressNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "Address not found")
	case errors.Is(err, appErrors.ErrEmailInUse):
		utils.ErrorResponse(c, http.StatusConflict, "Email already in use")
	case errors.Is(err, appErrors.ErrDefaultAddressConflict):
		utils.ErrorResponse(c, http.StatusConflict, "Another default address was set at the same time, please retry")
	default:
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Code == appErrors.CodeValidation && len(appErr.Fields) > 0 {
				utils.ErrorResponseWithData(c, http.StatusBadRequest, appErr.Message, gin.H{"errors": appErr.Fields})
				return
			}
			utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
			return
		}

		logger.FromContext(c.Request.Context()).Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// bindJSON decodes the request body into req, answering the client itself
// when that fails.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		utils.ErrorResponse(c, http.StatusBadRequest, "Request body is required")
	default:
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	return false
}

// currentUserID returns the authenticated user's id. AuthMiddleware is
// always mounted in front of the handlers calling it.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	session, ok := middleware.CurrentUser(c)
	if !ok {
		respondWithError(c, appErrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return session.ID, true
}
