package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freecs/freecs-api/internal/models"
	"github.com/freecs/freecs-api/internal/service"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
	"github.com/freecs/freecs-api/pkg/response"
)

type InstructorHandler struct {
	service *service.InstructorService
}

func NewInstructorHandler(svc *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{service: svc}
}

// List returns all instructors with their user details.
func (h *InstructorHandler) List(c *gin.Context) {
	instructors, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instructors, nil)
}

// Update applies a partial update to an instructor record.
func (h *InstructorHandler) Update(c *gin.Context) {
	var req models.UpdateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	instructor, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instructor, nil)
}
