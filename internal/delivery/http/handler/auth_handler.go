package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-api/internal/middleware"
	"storefront-api/internal/usecase/user"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

type AuthHandler struct {
	service *user.Service
}

func NewAuthHandler(service *user.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes mounts the public endpoints. /refresh needs a session, so
// authRequired guards it.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, authRequired gin.HandlerFunc) {
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/reset-password", h.ResetPassword)
	router.POST("/refresh", authRequired, h.Refresh)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "User registered successfully", authResponse)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", authResponse)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	session, ok := middleware.CurrentUser(c)
	if !ok {
		respondWithError(c, appErrors.ErrUnauthorized)
		return
	}

	tokenResponse, err := h.service.Refresh(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Token refreshed successfully", tokenResponse)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req user.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, user.ForgotPasswordMessage, nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset successfully", nil)
}
