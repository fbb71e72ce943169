package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/freecs/freecs-api/internal/models"
	"github.com/freecs/freecs-api/internal/service"
	appErrors "github.com/freecs/freecs-api/pkg/errors"
	"github.com/freecs/freecs-api/pkg/response"
)

type CourseHandler struct {
	catalog *service.CatalogService
	export  *service.ExportService
}

func NewCourseHandler(catalog *service.CatalogService, export *service.ExportService) *CourseHandler {
	return &CourseHandler{catalog: catalog, export: export}
}

// List returns courses with their categories and instructors, paginated
// through limit/offset query parameters.
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	}

	courses, pagination, err := h.catalog.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, pagination)
}

// Create adds a course owned by the calling instructor.
func (h *CourseHandler) Create(c *gin.Context) {
	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	course, err := h.catalog.CreateCourse(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, course)
}

// Preferred returns the courses matching a member's preferred categories.
func (h *CourseHandler) Preferred(c *gin.Context) {
	courses, err := h.catalog.PreferredCourses(c.Request.Context(), c.Param("member_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// Search matches courses by name or category using a case-insensitive
// regular expression.
func (h *CourseHandler) Search(c *gin.Context) {
	searchText := c.Query("search_text")
	if searchText == "" {
		// Older clients post the search text in the body.
		var body struct {
			SearchText string `json:"search_text"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			searchText = body.SearchText
		}
	}

	courses, err := h.catalog.Search(c.Request.Context(), searchText)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// Export streams the course catalog as CSV or PDF.
func (h *CourseHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	result, err := h.export.ExportCatalog(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
