package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/models"
	"github.com/Larrykj/School-App-sub001/internal/service"
	"github.com/Larrykj/School-App-sub001/pkg/response"
)

// CourseHandler exposes course catalog and offering endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs handler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// List godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by code or name"
// @Param elective query bool false "Filter electives"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("elective"); raw != "" {
		if elective, err := strconv.ParseBool(raw); err == nil {
			filter.IsElective = &elective
		}
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Course detail with prerequisites
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, err := h.courses.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetOffering godoc
// @Summary Offering detail
// @Tags Offerings
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /offerings/{id} [get]
func (h *CourseHandler) GetOffering(c *gin.Context) {
	detail, err := h.courses.FindOffering(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListOfferings godoc
// @Summary List offerings for a term
// @Tags Offerings
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /terms/{id}/offerings [get]
func (h *CourseHandler) ListOfferings(c *gin.Context) {
	offerings, err := h.courses.ListOfferings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// ProgramRequirement godoc
// @Summary Get the graduation requirement for a program
// @Tags Courses
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /programs/{id}/requirements [get]
func (h *CourseHandler) ProgramRequirement(c *gin.Context) {
	requirement, err := h.courses.ProgramRequirement(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requirement, nil)
}

// ListTerms godoc
// @Summary List terms, oldest first
// @Tags Terms
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /terms [get]
func (h *CourseHandler) ListTerms(c *gin.Context) {
	terms, err := h.courses.ListTerms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}
