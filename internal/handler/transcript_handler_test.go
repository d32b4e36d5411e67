package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/middleware"
	"github.com/Larrykj/School-App-sub001/internal/models"
	"github.com/Larrykj/School-App-sub001/internal/repository"
	"github.com/Larrykj/School-App-sub001/internal/service"
	"github.com/Larrykj/School-App-sub001/pkg/storage"
)

type exportRepoStub struct{}

func (exportRepoStub) Create(ctx context.Context, job *models.TranscriptExport) error { return nil }
func (exportRepoStub) FindByID(ctx context.Context, id string) (*models.TranscriptExport, error) {
	return nil, sql.ErrNoRows
}
func (exportRepoStub) Update(ctx context.Context, id string, params repository.UpdateExportParams) error {
	return nil
}

type summaryStub struct{}

func (summaryStub) GetAcademicSummary(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	return &models.AcademicSummary{StudentID: studentID}, nil
}

type studentStub struct{}

func (studentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return &models.Student{ID: id, RegNo: "S-001", Active: true}, nil
}

func newDownloadFixture(t *testing.T) (*gin.Engine, *storage.LocalStorage, *storage.SignedURLSigner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := service.NewExportService(exportRepoStub{}, summaryStub{}, studentStub{}, store, signer,
		service.ExportConfig{APIPrefix: "/api/v1"}, nil, zap.NewNop())
	h := NewTranscriptHandler(nil, svc)

	router := gin.New()
	router.GET("/api/v1/transcripts/downloads/:token", h.DownloadExport)
	return router, store, signer
}

func TestTranscriptHandlerDownloadExport(t *testing.T) {
	router, store, signer := newDownloadFixture(t)

	content := []byte("reg_no,course,grade\nS-001,CS101,A\n")
	relPath, err := store.Save("transcripts/S-001.csv", content)
	require.NoError(t, err)
	token, _, err := signer.Generate("job-1", relPath)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/transcripts/downloads/"+token, nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), `attachment; filename="S-001.csv"`)
	assert.Equal(t, "no-store", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, content, recorder.Body.Bytes())
}

func TestTranscriptHandlerDownloadExportBadToken(t *testing.T) {
	router, store, signer := newDownloadFixture(t)

	relPath, err := store.Save("transcripts/S-001.csv", []byte("data"))
	require.NoError(t, err)
	token, _, err := signer.Generate("job-1", relPath)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/transcripts/downloads/"+token+"x", nil))

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestTranscriptHandlerDownloadExportMissingFile(t *testing.T) {
	router, _, signer := newDownloadFixture(t)

	token, _, err := signer.Generate("job-9", "transcripts/gone.csv")
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/transcripts/downloads/"+token, nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestTranscriptHandlerAcademicSummaryForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewTranscriptHandler(nil, nil)

	ownID := "s1"
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleStudent, StudentID: &ownID}
	router := gin.New()
	router.GET("/students/:studentId/transcript",
		func(c *gin.Context) { c.Set(middleware.ContextUserKey, claims) },
		h.AcademicSummary,
	)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/students/s2/transcript", nil))

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
