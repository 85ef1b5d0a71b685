package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strideapp/stride-server/internal/dto"
	"github.com/strideapp/stride-server/internal/service"
	"github.com/strideapp/stride-server/pkg/response"
	"github.com/strideapp/stride-server/pkg/validator"
)

type ActivityHandler struct {
	service service.StreakService
}

func NewActivityHandler(service service.StreakService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// LogActivity handles POST /api/activities.
func (h *ActivityHandler) LogActivity(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.LogActivity(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
