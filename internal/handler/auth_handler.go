package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/strideapp/stride-server/internal/dto"
	"github.com/strideapp/stride-server/internal/service"
	"github.com/strideapp/stride-server/pkg/response"
	"github.com/strideapp/stride-server/pkg/validator"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
