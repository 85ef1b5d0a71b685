package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strideapp/stride-server/internal/service"
	"github.com/strideapp/stride-server/pkg/response"
	"github.com/strideapp/stride-server/pkg/validator"
)

type StreakHandler struct {
	service service.StreakService
}

func NewStreakHandler(service service.StreakService) *StreakHandler {
	return &StreakHandler{service: service}
}

// GetStatus handles GET /api/streak.
func (h *StreakHandler) GetStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Reprocess handles POST /api/streak/reprocess, the retry path for a
// day whose activity is logged but whose streak update failed.
func (h *StreakHandler) Reprocess(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.ReprocessStreak(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type updateTimezoneRequest struct {
	Timezone string `json:"timezone" binding:"required"`
}

// UpdateTimezone handles PUT /api/streak/timezone.
func (h *StreakHandler) UpdateTimezone(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req updateTimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.UpdateTimezone(c.Request.Context(), userID, req.Timezone); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"timezone": req.Timezone})
}
