package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/models"
	"github.com/Larrykj/School-App-sub001/internal/repository"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
	"github.com/Larrykj/School-App-sub001/pkg/export"
	"github.com/Larrykj/School-App-sub001/pkg/jobs"
	"github.com/Larrykj/School-App-sub001/pkg/storage"
)

type exportJobRepository interface {
	Create(ctx context.Context, job *models.TranscriptExport) error
	FindByID(ctx context.Context, id string) (*models.TranscriptExport, error)
	Update(ctx context.Context, id string, params repository.UpdateExportParams) error
}

type transcriptProvider interface {
	GetAcademicSummary(ctx context.Context, studentID string) (*models.AcademicSummary, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes transcript export behaviour.
type ExportConfig struct {
	APIPrefix         string
	ResultTTL         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportRequest queues a transcript export.
type ExportRequest struct {
	StudentID string              `json:"student_id" validate:"required"`
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportService generates transcript files in the background. A request
// persists a QUEUED job and enqueues it; workers render the transcript,
// store the file, and publish a signed download URL on the job row.
type ExportService struct {
	exports     exportJobRepository
	transcripts transcriptProvider
	students    studentReader
	storage     fileStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	queue       *jobs.Queue
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService with its worker queue.
func NewExportService(exports exportJobRepository, transcripts transcriptProvider, students studentReader, fileStore fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	s := &ExportService{
		exports:     exports,
		transcripts: transcripts,
		students:    students,
		storage:     fileStore,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		signer:      signer,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
	s.queue = jobs.NewQueue("transcript-exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Request persists and enqueues a transcript export job.
func (s *ExportService) Request(ctx context.Context, req ExportRequest, createdBy string) (*models.TranscriptExport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	job := &models.TranscriptExport{
		StudentID: req.StudentID,
		Format:    req.Format,
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.exports.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "transcript_export"}); err != nil {
		s.markFailed(ctx, job.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(ctx context.Context, id string) (*models.TranscriptExport, error) {
	job, err := s.exports.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// ParseToken validates a download token and returns its metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes export files older than ttl, defaulting to the
// configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	return s.processJob(ctx, job.ID)
}

func (s *ExportService) processJob(ctx context.Context, id string) error {
	record, err := s.exports.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", id, err)
	}

	processing := models.ExportStatusProcessing
	if err := s.exports.Update(ctx, record.ID, repository.UpdateExportParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark export processing: %w", err)
	}

	url, err := s.generate(ctx, record)
	if err != nil {
		s.markFailed(ctx, record.ID, err)
		return err
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	if err := s.exports.Update(ctx, record.ID, repository.UpdateExportParams{
		Status:     &finished,
		ResultURL:  &url,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark export finished: %w", err)
	}
	s.logger.Info("transcript export finished",
		zap.String("job_id", record.ID),
		zap.String("student_id", record.StudentID),
		zap.String("format", string(record.Format)))
	return nil
}

func (s *ExportService) generate(ctx context.Context, record *models.TranscriptExport) (string, error) {
	student, err := s.students.FindByID(ctx, record.StudentID)
	if err != nil {
		return "", fmt.Errorf("load student: %w", err)
	}
	summary, err := s.transcripts.GetAcademicSummary(ctx, record.StudentID)
	if err != nil {
		return "", fmt.Errorf("build academic summary: %w", err)
	}

	dataset := buildTranscriptDataset(summary)
	title := fmt.Sprintf("Academic Transcript %s", student.RegNo)

	var payload []byte
	switch record.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", record.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("transcript_%s_%s.%s",
		sanitizeFilename(student.RegNo),
		time.Now().UTC().Format("20060102_150405"),
		record.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", fmt.Errorf("store export file: %w", err)
	}

	token, _, err := s.signer.Generate(record.ID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign download url: %w", err)
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/transcripts/downloads/%s", prefix, token), nil
}

func (s *ExportService) markFailed(ctx context.Context, id string, cause error) {
	failed := models.ExportStatusFailed
	message := cause.Error()
	now := time.Now().UTC()
	if err := s.exports.Update(ctx, id, repository.UpdateExportParams{
		Status:       &failed,
		ErrorMessage: &message,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark export failed", zap.String("job_id", id), zap.Error(err))
	}
}

var transcriptHeaders = []string{"Term", "Course", "Credits", "CAT", "Exam", "Total", "Grade", "Points"}

func buildTranscriptDataset(summary *models.AcademicSummary) export.Dataset {
	rows := make([]map[string]string, 0)
	for _, semester := range summary.Semesters {
		for _, course := range semester.Courses {
			rows = append(rows, map[string]string{
				"Term":    course.TermID,
				"Course":  course.CourseCode,
				"Credits": fmt.Sprintf("%d", course.CreditHours),
				"CAT":     formatMarks(course.CATMarks),
				"Exam":    formatMarks(course.ExamMarks),
				"Total":   formatMarks(course.TotalMarks),
				"Grade":   string(course.LetterGrade),
				"Points":  formatMarks(course.GradePoints),
			})
		}
		rows = append(rows, map[string]string{
			"Term":    semester.TermID,
			"Course":  "SEMESTER GPA",
			"Credits": fmt.Sprintf("%d", semester.EarnedCredits),
			"Points":  formatMarks(semester.GPA),
		})
	}
	cumulative := map[string]string{
		"Course":  "CUMULATIVE GPA",
		"Credits": fmt.Sprintf("%d", summary.EarnedCredits),
		"Points":  formatMarks(summary.CumulativeGPA),
	}
	if summary.Standing != nil {
		cumulative["Grade"] = string(*summary.Standing)
	}
	rows = append(rows, cumulative)
	return export.Dataset{Headers: transcriptHeaders, Rows: rows}
}

func formatMarks(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
