package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/strideapp/stride-server/internal/service"
	"github.com/strideapp/stride-server/pkg/response"
)

type MilestoneHandler struct {
	service service.MilestoneService
}

func NewMilestoneHandler(service service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{service: service}
}

// GetProgress handles GET /api/milestones: the user's award history.
func (h *MilestoneHandler) GetProgress(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	rows, err := h.service.GetProgress(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": rows})
}

// ClaimReward handles POST /api/milestones/:id/claim. The id is the
// MilestoneProgress row, not the catalog entry.
func (h *MilestoneHandler) ClaimReward(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	progressID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone progress id"})
		return
	}

	row, err := h.service.ClaimReward(c.Request.Context(), userID, uint(progressID))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}
