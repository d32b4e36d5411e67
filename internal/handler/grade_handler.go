package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/service"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
	"github.com/Larrykj/School-App-sub001/pkg/response"
)

// GradeHandler exposes grade publication and history endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// SubmitMarks godoc
// @Summary Publish CAT and exam marks for a student on an offering
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SubmitMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [post]
func (h *GradeHandler) SubmitMarks(c *gin.Context) {
	var req service.SubmitMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.SubmitMarks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// MarkAbsent godoc
// @Summary Record an examination absence for a student on an offering
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.MarkAbsentRequest true "Absence payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/absent [post]
func (h *GradeHandler) MarkAbsent(c *gin.Context) {
	var req service.MarkAbsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.MarkAbsent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Find godoc
// @Summary Get a student grade for one offering
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Param offeringId path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/grades/{offeringId} [get]
func (h *GradeHandler) Find(c *gin.Context) {
	studentID := c.Param("studentId")
	if !canAccessStudent(claimsFromContext(c), studentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, ""))
		return
	}
	grade, err := h.grades.Find(c.Request.Context(), studentID, c.Param("offeringId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// History godoc
// @Summary List a student's grade history
// @Tags Grades
// @Produce json
// @Param studentId path string true "Student ID"
// @Param termId query string false "Filter by term"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/grades [get]
func (h *GradeHandler) History(c *gin.Context) {
	studentID := c.Param("studentId")
	if !canAccessStudent(claimsFromContext(c), studentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, ""))
		return
	}
	grades, err := h.grades.History(c.Request.Context(), studentID, c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}
