package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/models"
	"github.com/Larrykj/School-App-sub001/internal/service"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
	"github.com/Larrykj/School-App-sub001/pkg/response"
)

// RegistrationHandler exposes registration endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs handler.
func NewRegistrationHandler(registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// CheckEligibility godoc
// @Summary Check registration eligibility for an offering
// @Tags Registrations
// @Produce json
// @Param id path string true "Offering ID"
// @Param studentId query string false "Student ID (defaults to caller)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /offerings/{id}/eligibility [get]
func (h *RegistrationHandler) CheckEligibility(c *gin.Context) {
	studentID, ok := h.resolveStudent(c)
	if !ok {
		return
	}
	result, err := h.registrations.CheckEligibility(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register godoc
// @Summary Register a student for an offering
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account has no student profile"))
			return
		}
		req.StudentID = *claims.StudentID
	}
	registration, err := h.registrations.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param offeringId query string false "Filter by offering"
// @Param termId query string false "Filter by term"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	filter := models.RegistrationFilter{
		StudentID:  c.Query("studentId"),
		OfferingID: c.Query("offeringId"),
		TermID:     c.Query("termId"),
		Status:     models.RegistrationStatus(c.Query("status")),
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account has no student profile"))
			return
		}
		filter.StudentID = *claims.StudentID
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	registrations, pagination, err := h.registrations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, pagination)
}

// Approve godoc
// @Summary Approve a pending registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations/{id}/approve [post]
func (h *RegistrationHandler) Approve(c *gin.Context) {
	registration, err := h.registrations.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Reject godoc
// @Summary Reject a pending registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body service.DropRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations/{id}/reject [post]
func (h *RegistrationHandler) Reject(c *gin.Context) {
	var req service.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, err := h.registrations.Reject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Drop godoc
// @Summary Drop an approved registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body service.DropRequest true "Drop reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /registrations/{id}/drop [post]
func (h *RegistrationHandler) Drop(c *gin.Context) {
	var req service.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account has no student profile"))
			return
		}
		req.ActorStudentID = *claims.StudentID
	}
	registration, err := h.registrations.Drop(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// resolveStudent picks the target student for read endpoints: students
// always act on themselves, staff may pass studentId explicitly.
func (h *RegistrationHandler) resolveStudent(c *gin.Context) (string, bool) {
	claims := claimsFromContext(c)
	if claims != nil && claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account has no student profile"))
			return "", false
		}
		return *claims.StudentID, true
	}
	studentID := c.Query("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId required"))
		return "", false
	}
	return studentID, true
}
