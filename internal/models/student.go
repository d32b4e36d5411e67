package models

import "time"

// Student represents a learner admitted to a program.
type Student struct {
	ID        string    `db:"id" json:"id"`
	RegNo     string    `db:"reg_no" json:"reg_no"`
	FullName  string    `db:"full_name" json:"full_name"`
	ProgramID string    `db:"program_id" json:"program_id"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ProgramID string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with program context.
type StudentDetail struct {
	Student
	ProgramName          *string  `db:"program_name" json:"program_name,omitempty"`
	TotalCreditsRequired *int     `db:"total_credits_required" json:"total_credits_required,omitempty"`
	MinimumGPA           *float64 `db:"minimum_gpa" json:"minimum_gpa,omitempty"`
}
