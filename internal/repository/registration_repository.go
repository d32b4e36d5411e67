package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

// RegistrationRepository handles persistence of course registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Create inserts a new registration in PENDING state.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	registration.CreatedAt = now
	registration.UpdatedAt = now
	const query = `INSERT INTO registrations (id, student_id, offering_id, term_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query,
		registration.ID, registration.StudentID, registration.OfferingID,
		registration.TermID, registration.Status, registration.CreatedAt, registration.UpdatedAt); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id, student_id, offering_id, term_id, status, drop_reason, created_at, updated_at
        FROM registrations WHERE id = $1`
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ListByStudentAndTerm returns every registration a student holds in a term.
func (r *RegistrationRepository) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	const query = `SELECT id, student_id, offering_id, term_id, status, drop_reason, created_at, updated_at
        FROM registrations WHERE student_id = $1 AND term_id = $2 ORDER BY created_at ASC`
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// List returns registrations filtered by the provided criteria.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	base := `FROM registrations r`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("r.offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("r.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT r.id, r.student_id, r.offering_id, r.term_id, r.status, r.drop_reason, r.created_at, r.updated_at
        %s ORDER BY r.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}

// UpdateStatus moves a registration to a new state, optionally recording
// the drop reason. Transition legality is the service's responsibility.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, dropReason *string) error {
	const query = `UPDATE registrations SET status = $2, drop_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, dropReason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}
