package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

// CourseRepository handles persistence of the course catalog and offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns catalog courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := `FROM courses c`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.code ILIKE $%d OR c.name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.IsElective != nil {
		conditions = append(conditions, fmt.Sprintf("c.is_elective = $%d", len(args)+1))
		args = append(args, *filter.IsElective)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"code":         "c.code",
		"name":         "c.name",
		"credit_hours": "c.credit_hours",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.code"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT c.id, c.code, c.name, c.credit_hours, c.is_elective, c.created_at, c.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, name, credit_hours, is_elective, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Prerequisites returns the course's prerequisite edges in catalog order.
func (r *CourseRepository) Prerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error) {
	const query = `SELECT id, course_id, required_code, is_strict, position
        FROM course_prerequisites WHERE course_id = $1 ORDER BY position ASC`
	var prereqs []models.Prerequisite
	if err := r.db.SelectContext(ctx, &prereqs, query, courseID); err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	return prereqs, nil
}

// FindOffering returns an offering by its ID.
func (r *CourseRepository) FindOffering(ctx context.Context, id string) (*models.CourseOffering, error) {
	const query = `SELECT id, course_id, term_id, lecturer_id, max_students, enrolled_count, created_at, updated_at
        FROM course_offerings WHERE id = $1`
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// FindOfferingDetail returns an offering with course and term context.
func (r *CourseRepository) FindOfferingDetail(ctx context.Context, id string) (*models.OfferingDetail, error) {
	const query = `SELECT o.id, o.course_id, o.term_id, o.lecturer_id, o.max_students, o.enrolled_count,
        o.created_at, o.updated_at,
        c.code AS course_code, c.name AS course_name, c.credit_hours, t.name AS term_name
        FROM course_offerings o
        JOIN courses c ON c.id = o.course_id
        JOIN terms t ON t.id = o.term_id
        WHERE o.id = $1`
	var detail models.OfferingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListOfferingsByTerm returns all offerings for a term with course context.
func (r *CourseRepository) ListOfferingsByTerm(ctx context.Context, termID string) ([]models.OfferingDetail, error) {
	const query = `SELECT o.id, o.course_id, o.term_id, o.lecturer_id, o.max_students, o.enrolled_count,
        o.created_at, o.updated_at,
        c.code AS course_code, c.name AS course_name, c.credit_hours, t.name AS term_name
        FROM course_offerings o
        JOIN courses c ON c.id = o.course_id
        JOIN terms t ON t.id = o.term_id
        WHERE o.term_id = $1 ORDER BY c.code ASC`
	var offerings []models.OfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, query, termID); err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	return offerings, nil
}

// ClaimSeat atomically takes one seat on the offering. The capacity check
// and the increment execute as a single statement so concurrent claims
// can never overbook; a false return means the offering filled up between
// the advisory eligibility check and this commit.
func (r *CourseRepository) ClaimSeat(ctx context.Context, offeringID string) (bool, error) {
	const query = `UPDATE course_offerings
        SET enrolled_count = enrolled_count + 1, updated_at = NOW()
        WHERE id = $1 AND enrolled_count < max_students`
	result, err := r.db.ExecContext(ctx, query, offeringID)
	if err != nil {
		return false, fmt.Errorf("claim seat: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim seat result: %w", err)
	}
	return affected == 1, nil
}

// ReleaseSeat returns one seat to the offering, clamped at zero.
func (r *CourseRepository) ReleaseSeat(ctx context.Context, offeringID string) error {
	const query = `UPDATE course_offerings
        SET enrolled_count = enrolled_count - 1, updated_at = NOW()
        WHERE id = $1 AND enrolled_count > 0`
	if _, err := r.db.ExecContext(ctx, query, offeringID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}
