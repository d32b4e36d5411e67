package models

import "time"

// Course represents a catalog course. Code is the catalog identity.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	IsElective  bool      `db:"is_elective" json:"is_elective"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Prerequisite is a directed edge from a course to a required course.
// Non-strict entries are advisory and never block registration. Position
// preserves the catalog's declared ordering.
type Prerequisite struct {
	ID           string `db:"id" json:"id"`
	CourseID     string `db:"course_id" json:"course_id"`
	RequiredCode string `db:"required_code" json:"required_code"`
	IsStrict     bool   `db:"is_strict" json:"is_strict"`
	Position     int    `db:"position" json:"position"`
}

// CourseOffering is a course taught in a specific term with its own capacity.
type CourseOffering struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	TermID        string    `db:"term_id" json:"term_id"`
	LecturerID    *string   `db:"lecturer_id" json:"lecturer_id,omitempty"`
	MaxStudents   int       `db:"max_students" json:"max_students"`
	EnrolledCount int       `db:"enrolled_count" json:"enrolled_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SpotsLeft returns the remaining capacity, never negative.
func (o CourseOffering) SpotsLeft() int {
	left := o.MaxStudents - o.EnrolledCount
	if left < 0 {
		return 0
	}
	return left
}

// IsFull reports whether the offering has no remaining capacity.
func (o CourseOffering) IsFull() bool {
	return o.MaxStudents-o.EnrolledCount <= 0
}

// OfferingDetail enriches CourseOffering with course and term info.
type OfferingDetail struct {
	CourseOffering
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseName  string `db:"course_name" json:"course_name"`
	CreditHours int    `db:"credit_hours" json:"credit_hours"`
	TermName    string `db:"term_name" json:"term_name"`
}

// RegistrationWindow bounds when registration is possible for a term.
type RegistrationWindow struct {
	Start time.Time `db:"registration_start" json:"registration_start"`
	End   time.Time `db:"registration_end" json:"registration_end"`
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w RegistrationWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// CourseFilter scopes catalog listing.
type CourseFilter struct {
	Search     string
	IsElective *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
