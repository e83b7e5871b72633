package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-api/internal/usecase/address"
	appErrors "storefront-api/pkg/errors"
	"storefront-api/pkg/utils"
)

type AddressHandler struct {
	service *address.Service
}

func NewAddressHandler(service *address.Service) *AddressHandler {
	return &AddressHandler{service: service}
}

func (h *AddressHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("", h.List)
	router.POST("", h.Create)
	router.GET("/:id", h.Get)
	router.PUT("/:id", h.Update)
	router.DELETE("/:id", h.Delete)
	router.PUT("/:id/default", h.SetDefault)
}

// addressID parses the :id parameter. An unparsable id cannot name one of
// the caller's addresses, so it is reported as not found.
func addressID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondWithError(c, appErrors.ErrAddressNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *AddressHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	addresses, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Addresses retrieved successfully", gin.H{"addresses": addresses})
}

func (h *AddressHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := addressID(c)
	if !ok {
		return
	}

	a, err := h.service.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Address retrieved successfully", gin.H{"address": a})
}

func (h *AddressHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req address.CreateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Address created successfully", gin.H{"address": a})
}

func (h *AddressHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := addressID(c)
	if !ok {
		return
	}

	var req address.UpdateAddressRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.service.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Address updated successfully", gin.H{"address": a})
}

func (h *AddressHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := addressID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Address deleted successfully", nil)
}

func (h *AddressHandler) SetDefault(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := addressID(c)
	if !ok {
		return
	}

	a, err := h.service.SetDefault(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Default address updated successfully", gin.H{"address": a})
}
