package models

// StandingCategory classifies cumulative academic performance.
type StandingCategory string

// Standing bands, highest first.
const (
	StandingFirstClass  StandingCategory = "FIRST_CLASS_HONORS"
	StandingSecondUpper StandingCategory = "SECOND_CLASS_HONORS_UPPER"
	StandingSecondLower StandingCategory = "SECOND_CLASS_HONORS_LOWER"
	StandingPass        StandingCategory = "PASS"
	StandingProbation   StandingCategory = "FAIL_PROBATION"
)

// SemesterSummary rolls one term's published grades for a student.
// GPA is nil when the term has no gradable credits; that is a distinct
// fact from a 0.0 GPA and is never defaulted.
type SemesterSummary struct {
	TermID           string         `json:"term_id"`
	Courses          []GradedCourse `json:"courses"`
	GPA              *float64       `json:"gpa,omitempty"`
	AttemptedCredits int            `json:"attempted_credits"`
	EarnedCredits    int            `json:"earned_credits"`
}

// AcademicSummary is the full academic record for a student to date.
type AcademicSummary struct {
	StudentID        string                 `json:"student_id"`
	Semesters        []SemesterSummary      `json:"semesters"`
	CumulativeGPA    *float64               `json:"cumulative_gpa,omitempty"`
	AttemptedCredits int                    `json:"attempted_credits"`
	EarnedCredits    int                    `json:"earned_credits"`
	Standing         *StandingCategory      `json:"standing,omitempty"`
	Graduation       *GraduationEligibility `json:"graduation,omitempty"`
}

// ProgramRequirement defines what a program demands for graduation.
type ProgramRequirement struct {
	ID                   string  `db:"id" json:"id"`
	ProgramID            string  `db:"program_id" json:"program_id"`
	TotalCreditsRequired int     `db:"total_credits_required" json:"total_credits_required"`
	MinimumGPA           float64 `db:"minimum_gpa" json:"minimum_gpa"`
}

// GraduationBlocker enumerates reasons a student cannot graduate yet.
type GraduationBlocker string

// Graduation blockers. Both are reported together when both apply.
const (
	BlockerInsufficientCredits GraduationBlocker = "INSUFFICIENT_CREDITS"
	BlockerGPABelowMinimum     GraduationBlocker = "GPA_BELOW_MINIMUM"
)

// GraduationEligibility is the complete graduation decision, including
// every blocking reason so callers can show full remediation guidance.
type GraduationEligibility struct {
	Eligible       bool                `json:"eligible"`
	MissingCredits int                 `json:"missing_credits"`
	Blockers       []GraduationBlocker `json:"blockers,omitempty"`
}
