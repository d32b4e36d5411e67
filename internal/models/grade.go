package models

import "time"

// Mark component bounds. CAT and exam marks arrive pre-scaled to their
// component weight, so the published total is a plain sum out of 100.
const (
	MaxCATMarks  = 30.0
	MaxExamMarks = 70.0
)

// LetterGrade is the closed set of published letter grades.
type LetterGrade string

// Letter grades. AB marks an absent student and carries no grade points.
const (
	GradeA      LetterGrade = "A"
	GradeB      LetterGrade = "B"
	GradeC      LetterGrade = "C"
	GradeD      LetterGrade = "D"
	GradeE      LetterGrade = "E"
	GradeAbsent LetterGrade = "AB"
)

// MarkEntry holds raw component marks for one student in one offering.
type MarkEntry struct {
	CATMarks  float64 `json:"cat_marks" validate:"min=0,max=30"`
	ExamMarks float64 `json:"exam_marks" validate:"min=0,max=70"`
}

// GradedCourse is a published grade for one student in one offering.
// It is immutable history once written; a re-submission replaces the
// whole row, never part of it.
type GradedCourse struct {
	ID          string      `db:"id" json:"id"`
	StudentID   string      `db:"student_id" json:"student_id"`
	OfferingID  string      `db:"offering_id" json:"offering_id"`
	CourseCode  string      `db:"course_code" json:"course_code"`
	TermID      string      `db:"term_id" json:"term_id"`
	CreditHours int         `db:"credit_hours" json:"credit_hours"`
	CATMarks    *float64    `db:"cat_marks" json:"cat_marks,omitempty"`
	ExamMarks   *float64    `db:"exam_marks" json:"exam_marks,omitempty"`
	TotalMarks  *float64    `db:"total_marks" json:"total_marks,omitempty"`
	LetterGrade LetterGrade `db:"letter_grade" json:"letter_grade"`
	GradePoints *float64    `db:"grade_points" json:"grade_points,omitempty"`
	Passed      bool        `db:"passed" json:"passed"`
	PublishedAt time.Time   `db:"published_at" json:"published_at"`
}

// Gradable reports whether the grade enters GPA computation. Absences
// carry no grade points and are excluded from numerator and denominator.
func (g GradedCourse) Gradable() bool {
	return g.GradePoints != nil
}

// CompletedCourse is the slice of history used for prerequisite checks.
type CompletedCourse struct {
	CourseCode  string      `db:"course_code" json:"course_code"`
	LetterGrade LetterGrade `db:"letter_grade" json:"letter_grade"`
	Passed      bool        `db:"passed" json:"passed"`
}

// GradeFilter scopes published grade queries.
type GradeFilter struct {
	StudentID  string
	OfferingID string
	TermID     string
}
