package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

// ExportRepository persists transcript export jobs.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a queued export job.
func (r *ExportRepository) Create(ctx context.Context, job *models.TranscriptExport) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO transcript_exports (id, student_id, format, status, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query,
		job.ID, job.StudentID, job.Format, job.Status, job.CreatedBy, job.CreatedAt); err != nil {
		return fmt.Errorf("create transcript export: %w", err)
	}
	return nil
}

// FindByID returns an export job by ID.
func (r *ExportRepository) FindByID(ctx context.Context, id string) (*models.TranscriptExport, error) {
	const query = `SELECT id, student_id, format, status, result_url, created_by, created_at, finished_at, error_message
        FROM transcript_exports WHERE id = $1`
	var job models.TranscriptExport
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateExportParams captures mutable export job fields.
type UpdateExportParams struct {
	Status       *models.ExportStatus
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided fields to an export job.
func (r *ExportRepository) Update(ctx context.Context, id string, params UpdateExportParams) error {
	const query = `UPDATE transcript_exports SET
        status = COALESCE($2, status),
        result_url = COALESCE($3, result_url),
        error_message = COALESCE($4, error_message),
        finished_at = COALESCE($5, finished_at)
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, params.Status, params.ResultURL, params.ErrorMessage, params.FinishedAt); err != nil {
		return fmt.Errorf("update transcript export: %w", err)
	}
	return nil
}
