package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freecs/freecs-api/internal/models"
	"github.com/freecs/freecs-api/internal/service"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
	"github.com/freecs/freecs-api/pkg/response"
)

type CategoryHandler struct {
	service *service.CatalogService
}

func NewCategoryHandler(svc *service.CatalogService) *CategoryHandler {
	return &CategoryHandler{service: svc}
}

// List returns every category.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, categories, nil)
}

// Create adds a new category.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	category, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, category)
}
