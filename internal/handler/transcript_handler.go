package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/Larrykj/School-App-sub001/internal/models"
	"github.com/Larrykj/School-App-sub001/internal/service"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
	"github.com/Larrykj/School-App-sub001/pkg/response"
)

// TranscriptHandler exposes transcript summary and export endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
	exports     *service.ExportService
}

// NewTranscriptHandler constructs handler.
func NewTranscriptHandler(transcripts *service.TranscriptService, exports *service.ExportService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, exports: exports}
}

// AcademicSummary godoc
// @Summary Get a student's full academic summary
// @Tags Transcripts
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/transcript [get]
func (h *TranscriptHandler) AcademicSummary(c *gin.Context) {
	studentID := c.Param("studentId")
	if !canAccessStudent(claimsFromContext(c), studentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, ""))
		return
	}
	summary, err := h.transcripts.GetAcademicSummary(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SemesterSummary godoc
// @Summary Get a student's summary for one term
// @Tags Transcripts
// @Produce json
// @Param studentId path string true "Student ID"
// @Param termId path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{studentId}/transcript/terms/{termId} [get]
func (h *TranscriptHandler) SemesterSummary(c *gin.Context) {
	studentID := c.Param("studentId")
	if !canAccessStudent(claimsFromContext(c), studentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, ""))
		return
	}
	summary, err := h.transcripts.GetSemesterSummary(c.Request.Context(), studentID, c.Param("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RequestExport godoc
// @Summary Queue a transcript export
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body service.ExportRequest true "Export payload"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /transcripts/exports [post]
func (h *TranscriptHandler) RequestExport(c *gin.Context) {
	var req service.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, ""))
		return
	}
	if claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account has no student profile"))
			return
		}
		req.StudentID = *claims.StudentID
	}
	export, err := h.exports.Request(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, export, nil)
}

// ExportStatus godoc
// @Summary Get the status of a transcript export
// @Tags Transcripts
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /transcripts/exports/{id} [get]
func (h *TranscriptHandler) ExportStatus(c *gin.Context) {
	export, err := h.exports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !canAccessStudent(claimsFromContext(c), export.StudentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, ""))
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// DownloadExport godoc
// @Summary Download a finished transcript export
// @Tags Transcripts
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /transcripts/downloads/{token} [get]
func (h *TranscriptHandler) DownloadExport(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to stat export file"))
		return
	}
	mimeType := "text/csv"
	if filepath.Ext(relPath) == ".pdf" {
		mimeType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
