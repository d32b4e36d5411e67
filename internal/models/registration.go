package models

import "time"

// RegistrationStatus represents the lifecycle of a course registration.
type RegistrationStatus string

// Possible registration statuses. REJECTED and DROPPED are terminal.
const (
	RegistrationStatusPending  RegistrationStatus = "PENDING"
	RegistrationStatusApproved RegistrationStatus = "APPROVED"
	RegistrationStatusRejected RegistrationStatus = "REJECTED"
	RegistrationStatusDropped  RegistrationStatus = "DROPPED"
)

// CanTransition reports whether the status may move to next.
func (s RegistrationStatus) CanTransition(next RegistrationStatus) bool {
	switch s {
	case RegistrationStatusPending:
		return next == RegistrationStatusApproved || next == RegistrationStatusRejected
	case RegistrationStatusApproved:
		return next == RegistrationStatusDropped
	default:
		return false
	}
}

// CountsTowardCapacity reports whether the status consumes an offering seat
// and contributes to the student's credit load.
func (s RegistrationStatus) CountsTowardCapacity() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusApproved
}

// Registration captures a student's registration to a course offering.
type Registration struct {
	ID         string             `db:"id" json:"id"`
	StudentID  string             `db:"student_id" json:"student_id"`
	OfferingID string             `db:"offering_id" json:"offering_id"`
	TermID     string             `db:"term_id" json:"term_id"`
	Status     RegistrationStatus `db:"status" json:"status"`
	DropReason *string            `db:"drop_reason" json:"drop_reason,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}

// IneligibilityReason enumerates why a registration attempt is refused.
type IneligibilityReason string

// Primary refusal reasons, ordered by rule precedence.
const (
	ReasonRegistrationClosed   IneligibilityReason = "REGISTRATION_CLOSED"
	ReasonAlreadyRegistered    IneligibilityReason = "ALREADY_REGISTERED"
	ReasonMissingPrerequisites IneligibilityReason = "MISSING_PREREQUISITES"
	ReasonOfferingFull         IneligibilityReason = "OFFERING_FULL"
)

// EligibilityResult is the full decision for one registration attempt.
// MissingPrerequisites and IsFull are always populated so callers can
// present every problem at once; Reason carries the first failing rule.
type EligibilityResult struct {
	CanRegister          bool                 `json:"can_register"`
	IsFull               bool                 `json:"is_full"`
	PrerequisitesMet     bool                 `json:"prerequisites_met"`
	MissingPrerequisites []string             `json:"missing_prerequisites"`
	Reason               *IneligibilityReason `json:"reason,omitempty"`
}

// RegistrationFilter scopes registration listing.
type RegistrationFilter struct {
	StudentID  string
	OfferingID string
	TermID     string
	Status     RegistrationStatus
	Page       int
	PageSize   int
}
