package academic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

func openWindow(now time.Time) models.RegistrationWindow {
	return models.RegistrationWindow{Start: now.Add(-24 * time.Hour), End: now.Add(24 * time.Hour)}
}

func strictPrereq(courseID, requiredCode string, position int) models.Prerequisite {
	return models.Prerequisite{CourseID: courseID, RequiredCode: requiredCode, IsStrict: true, Position: position}
}

func TestEvaluateRegistrationAllRulesPass(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		History: []models.CompletedCourse{
			{CourseCode: "CS101", LetterGrade: models.GradeB, Passed: true},
		},
		Prerequisites: []models.Prerequisite{strictPrereq("cs201", "CS101", 0)},
		Offering:      models.CourseOffering{ID: "off-1", MaxStudents: 30, EnrolledCount: 10},
		Window:        openWindow(now),
		Now:           now,
	})

	require.True(t, result.CanRegister)
	assert.True(t, result.PrerequisitesMet)
	assert.False(t, result.IsFull)
	assert.Empty(t, result.MissingPrerequisites)
	assert.Nil(t, result.Reason)
}

func TestEvaluateRegistrationClosedWindow(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		Offering: models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:   models.RegistrationWindow{Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour)},
		Now:      now,
	})

	require.False(t, result.CanRegister)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonRegistrationClosed, *result.Reason)
}

func TestEvaluateRegistrationWindowBoundsInclusive(t *testing.T) {
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)
	window := models.RegistrationWindow{Start: start, End: end}
	offering := models.CourseOffering{ID: "off-1", MaxStudents: 30}

	atStart := EvaluateRegistration(EligibilityInput{Offering: offering, Window: window, Now: start})
	assert.True(t, atStart.CanRegister)

	atEnd := EvaluateRegistration(EligibilityInput{Offering: offering, Window: window, Now: end})
	assert.True(t, atEnd.CanRegister)

	after := EvaluateRegistration(EligibilityInput{Offering: offering, Window: window, Now: end.Add(time.Second)})
	assert.False(t, after.CanRegister)
}

func TestEvaluateRegistrationDuplicate(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		Offering: models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:   openWindow(now),
		Now:      now,
		Existing: []models.Registration{
			{OfferingID: "off-1", Status: models.RegistrationStatusPending},
		},
	})

	require.False(t, result.CanRegister)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonAlreadyRegistered, *result.Reason)
}

func TestEvaluateRegistrationRejectedDoesNotBlock(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		Offering: models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:   openWindow(now),
		Now:      now,
		Existing: []models.Registration{
			{OfferingID: "off-1", Status: models.RegistrationStatusRejected},
			{OfferingID: "off-2", Status: models.RegistrationStatusApproved},
		},
	})

	assert.True(t, result.CanRegister)
}

func TestEvaluateRegistrationDroppedBlocksReRegistration(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		Offering: models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:   openWindow(now),
		Now:      now,
		Existing: []models.Registration{
			{OfferingID: "off-1", Status: models.RegistrationStatusDropped},
		},
	})

	require.False(t, result.CanRegister)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonAlreadyRegistered, *result.Reason)
}

func TestEvaluateRegistrationPrerequisiteRemovalFlips(t *testing.T) {
	now := time.Now()
	prereqs := []models.Prerequisite{
		strictPrereq("cs301", "CS101", 0),
		strictPrereq("cs301", "CS201", 1),
	}
	offering := models.CourseOffering{ID: "off-1", MaxStudents: 30}
	fullHistory := []models.CompletedCourse{
		{CourseCode: "CS101", Passed: true},
		{CourseCode: "CS201", Passed: true},
	}

	withBoth := EvaluateRegistration(EligibilityInput{
		History: fullHistory, Prerequisites: prereqs, Offering: offering, Window: openWindow(now), Now: now,
	})
	require.True(t, withBoth.CanRegister)

	withoutSecond := EvaluateRegistration(EligibilityInput{
		History:       fullHistory[:1],
		Prerequisites: prereqs, Offering: offering, Window: openWindow(now), Now: now,
	})
	require.False(t, withoutSecond.CanRegister)
	assert.Equal(t, []string{"CS201"}, withoutSecond.MissingPrerequisites)
	require.NotNil(t, withoutSecond.Reason)
	assert.Equal(t, models.ReasonMissingPrerequisites, *withoutSecond.Reason)
}

func TestEvaluateRegistrationFailedPrerequisiteCountsAsMissing(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		History: []models.CompletedCourse{
			{CourseCode: "CS101", LetterGrade: models.GradeE, Passed: false},
		},
		Prerequisites: []models.Prerequisite{strictPrereq("cs201", "CS101", 0)},
		Offering:      models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:        openWindow(now),
		Now:           now,
	})

	require.False(t, result.CanRegister)
	assert.Equal(t, []string{"CS101"}, result.MissingPrerequisites)
}

func TestEvaluateRegistrationNonStrictPrerequisiteNeverBlocks(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		Prerequisites: []models.Prerequisite{
			{CourseID: "cs201", RequiredCode: "CS100", IsStrict: false},
		},
		Offering: models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:   openWindow(now),
		Now:      now,
	})

	assert.True(t, result.CanRegister)
	assert.Empty(t, result.MissingPrerequisites)
}

func TestEvaluateRegistrationMissingPrereqsKeepCatalogOrder(t *testing.T) {
	now := time.Now()
	prereqs := []models.Prerequisite{
		strictPrereq("cs401", "CS301", 0),
		strictPrereq("cs401", "CS102", 1),
		strictPrereq("cs401", "CS205", 2),
	}
	result := EvaluateRegistration(EligibilityInput{
		Prerequisites: prereqs,
		Offering:      models.CourseOffering{ID: "off-1", MaxStudents: 30},
		Window:        openWindow(now),
		Now:           now,
	})

	assert.Equal(t, []string{"CS301", "CS102", "CS205"}, result.MissingPrerequisites)
}

func TestEvaluateRegistrationFullOffering(t *testing.T) {
	now := time.Now()
	result := EvaluateRegistration(EligibilityInput{
		Offering: models.CourseOffering{ID: "off-1", MaxStudents: 30, EnrolledCount: 30},
		Window:   openWindow(now),
		Now:      now,
	})

	require.False(t, result.CanRegister)
	assert.True(t, result.IsFull)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonOfferingFull, *result.Reason)
}

func TestEvaluateRegistrationReasonIsFirstFailingRule(t *testing.T) {
	now := time.Now()
	// Closed window plus missing prereqs plus full offering: the primary
	// reason follows rule order, but the other findings stay populated.
	result := EvaluateRegistration(EligibilityInput{
		Prerequisites: []models.Prerequisite{strictPrereq("cs201", "CS101", 0)},
		Offering:      models.CourseOffering{ID: "off-1", MaxStudents: 10, EnrolledCount: 10},
		Window:        models.RegistrationWindow{Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour)},
		Now:           now,
	})

	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonRegistrationClosed, *result.Reason)
	assert.True(t, result.IsFull)
	assert.False(t, result.PrerequisitesMet)
	assert.Equal(t, []string{"CS101"}, result.MissingPrerequisites)
}
