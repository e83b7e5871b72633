package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront-api/internal/logger"
	"storefront-api/pkg/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker is implemented by the stores.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	store       HealthChecker
	environment string
}

func NewHealthHandler(store HealthChecker, environment string) *HealthHandler {
	return &HealthHandler{store: store, environment: environment}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	data := gin.H{
		"environment": h.environment,
		"timestamp":   time.Now().UTC(),
	}

	if err := h.store.Health(ctx); err != nil {
		logger.FromContext(ctx).Error("Health check failed", zap.Error(err))
		data["database"] = "unavailable"
		utils.ErrorResponseWithData(c, http.StatusServiceUnavailable, "Service unavailable", data)
		return
	}

	data["database"] = "ok"
	utils.SuccessResponse(c, http.StatusOK, "Server is running", data)
}
