package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

// GradeRepository handles persistence of published grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Upsert publishes a grade for a student and offering. A re-submission
// replaces the whole row (last write wins); CAT and exam marks from
// different writes are never merged.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.GradedCourse) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	grade.PublishedAt = time.Now().UTC()
	const query = `INSERT INTO graded_courses
        (id, student_id, offering_id, course_code, term_id, credit_hours,
         cat_marks, exam_marks, total_marks, letter_grade, grade_points, passed, published_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (student_id, offering_id) DO UPDATE SET
            course_code = EXCLUDED.course_code,
            term_id = EXCLUDED.term_id,
            credit_hours = EXCLUDED.credit_hours,
            cat_marks = EXCLUDED.cat_marks,
            exam_marks = EXCLUDED.exam_marks,
            total_marks = EXCLUDED.total_marks,
            letter_grade = EXCLUDED.letter_grade,
            grade_points = EXCLUDED.grade_points,
            passed = EXCLUDED.passed,
            published_at = EXCLUDED.published_at`
	if _, err := r.db.ExecContext(ctx, query,
		grade.ID, grade.StudentID, grade.OfferingID, grade.CourseCode, grade.TermID, grade.CreditHours,
		grade.CATMarks, grade.ExamMarks, grade.TotalMarks, grade.LetterGrade, grade.GradePoints,
		grade.Passed, grade.PublishedAt); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// FindByStudentAndOffering returns the published grade, if any.
func (r *GradeRepository) FindByStudentAndOffering(ctx context.Context, studentID, offeringID string) (*models.GradedCourse, error) {
	const query = `SELECT id, student_id, offering_id, course_code, term_id, credit_hours,
        cat_marks, exam_marks, total_marks, letter_grade, grade_points, passed, published_at
        FROM graded_courses WHERE student_id = $1 AND offering_id = $2`
	var grade models.GradedCourse
	if err := r.db.GetContext(ctx, &grade, query, studentID, offeringID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListByStudent returns every published grade for a student, ordered by
// term start date so callers receive chronological history.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradedCourse, error) {
	const query = `SELECT g.id, g.student_id, g.offering_id, g.course_code, g.term_id, g.credit_hours,
        g.cat_marks, g.exam_marks, g.total_marks, g.letter_grade, g.grade_points, g.passed, g.published_at
        FROM graded_courses g
        JOIN terms t ON t.id = g.term_id
        WHERE g.student_id = $1 ORDER BY t.start_date ASC, g.course_code ASC`
	var grades []models.GradedCourse
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListByStudentAndTerm returns published grades for one term.
func (r *GradeRepository) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.GradedCourse, error) {
	const query = `SELECT id, student_id, offering_id, course_code, term_id, credit_hours,
        cat_marks, exam_marks, total_marks, letter_grade, grade_points, passed, published_at
        FROM graded_courses WHERE student_id = $1 AND term_id = $2 ORDER BY course_code ASC`
	var grades []models.GradedCourse
	if err := r.db.SelectContext(ctx, &grades, query, studentID, termID); err != nil {
		return nil, fmt.Errorf("list term grades: %w", err)
	}
	return grades, nil
}

// CompletedCourses returns the pass/fail history used for prerequisite
// checks. Absences are excluded: a course never sat is not an attempt.
func (r *GradeRepository) CompletedCourses(ctx context.Context, studentID string) ([]models.CompletedCourse, error) {
	const query = `SELECT course_code, letter_grade, passed
        FROM graded_courses WHERE student_id = $1 AND letter_grade != $2`
	var completed []models.CompletedCourse
	if err := r.db.SelectContext(ctx, &completed, query, studentID, models.GradeAbsent); err != nil {
		return nil, fmt.Errorf("list completed courses: %w", err)
	}
	return completed, nil
}

// ExistsForOffering reports whether a grade is already published for the
// student and offering, used to block drops after publication.
func (r *GradeRepository) ExistsForOffering(ctx context.Context, studentID, offeringID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM graded_courses WHERE student_id = $1 AND offering_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, offeringID); err != nil {
		return false, fmt.Errorf("check grade exists: %w", err)
	}
	return exists, nil
}
