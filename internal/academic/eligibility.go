// Package academic implements the academic records engine: registration
// eligibility, grade computation, GPA aggregation, and standing/graduation
// evaluation. Every function is pure and operates only on caller-supplied
// values; the package owns no storage and never fabricates data.
package academic

import (
	"time"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

// EligibilityInput bundles everything the registration decision needs.
// Prerequisites must arrive in the catalog's declared order.
type EligibilityInput struct {
	History       []models.CompletedCourse
	Prerequisites []models.Prerequisite
	Offering      models.CourseOffering
	Window        models.RegistrationWindow
	Now           time.Time
	Existing      []models.Registration
}

// EvaluateRegistration decides whether a student may register for an
// offering. Rules run in fixed order (window, duplicate, prerequisites,
// capacity) and the first failure sets the primary reason, but missing
// prerequisites and capacity are always computed in full so callers can
// surface every problem at once.
func EvaluateRegistration(in EligibilityInput) models.EligibilityResult {
	windowOpen := in.Window.Contains(in.Now)
	duplicate := hasActiveRegistration(in.Existing, in.Offering.ID)
	missing := missingStrictPrerequisites(in.Prerequisites, in.History)
	isFull := in.Offering.IsFull()

	result := models.EligibilityResult{
		IsFull:               isFull,
		PrerequisitesMet:     len(missing) == 0,
		MissingPrerequisites: missing,
	}

	switch {
	case !windowOpen:
		result.Reason = reasonPtr(models.ReasonRegistrationClosed)
	case duplicate:
		result.Reason = reasonPtr(models.ReasonAlreadyRegistered)
	case len(missing) > 0:
		result.Reason = reasonPtr(models.ReasonMissingPrerequisites)
	case isFull:
		result.Reason = reasonPtr(models.ReasonOfferingFull)
	}

	result.CanRegister = windowOpen && !duplicate && result.PrerequisitesMet && !isFull
	return result
}

// hasActiveRegistration reports whether any existing registration for the
// offering is still non-rejected. A dropped registration also blocks
// re-registration within the same term: at most one non-rejected
// registration per offering per semester.
func hasActiveRegistration(existing []models.Registration, offeringID string) bool {
	for _, reg := range existing {
		if reg.OfferingID == offeringID && reg.Status != models.RegistrationStatusRejected {
			return true
		}
	}
	return false
}

// missingStrictPrerequisites returns the codes of strict prerequisites not
// passed yet, preserving catalog order. A failed attempt counts as missing;
// the course must be retaken and passed.
func missingStrictPrerequisites(prereqs []models.Prerequisite, history []models.CompletedCourse) []string {
	passed := make(map[string]bool, len(history))
	for _, completed := range history {
		if completed.Passed {
			passed[completed.CourseCode] = true
		}
	}
	missing := make([]string, 0)
	for _, prereq := range prereqs {
		if !prereq.IsStrict {
			continue
		}
		if !passed[prereq.RequiredCode] {
			missing = append(missing, prereq.RequiredCode)
		}
	}
	return missing
}

func reasonPtr(r models.IneligibilityReason) *models.IneligibilityReason {
	return &r
}
