package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

func gradedCourse(code string, credits int, points float64, passed bool) models.GradedCourse {
	return models.GradedCourse{CourseCode: code, CreditHours: credits, GradePoints: &points, Passed: passed}
}

func absentCourse(code string, credits int) models.GradedCourse {
	return models.GradedCourse{CourseCode: code, CreditHours: credits, LetterGrade: models.GradeAbsent}
}

func TestAggregateSemesterCreditWeighting(t *testing.T) {
	summary := AggregateSemester("term-1", []models.GradedCourse{
		gradedCourse("CS101", 4, 4.0, true),
		gradedCourse("MA100", 1, 0.0, false),
	})

	require.NotNil(t, summary.GPA)
	assert.InDelta(t, 3.2, *summary.GPA, 1e-9)
	assert.Equal(t, 5, summary.AttemptedCredits)
	assert.Equal(t, 4, summary.EarnedCredits)
}

func TestAggregateSemesterExcludesAbsences(t *testing.T) {
	summary := AggregateSemester("term-1", []models.GradedCourse{
		gradedCourse("CS101", 3, 3.0, true),
		absentCourse("MA100", 3),
	})

	require.NotNil(t, summary.GPA)
	assert.InDelta(t, 3.0, *summary.GPA, 1e-9)
	assert.Equal(t, 3, summary.AttemptedCredits)
	assert.Equal(t, 3, summary.EarnedCredits)
}

func TestAggregateSemesterNoGradableCredits(t *testing.T) {
	summary := AggregateSemester("term-1", []models.GradedCourse{absentCourse("CS101", 3)})
	assert.Nil(t, summary.GPA)
	assert.Equal(t, 0, summary.AttemptedCredits)

	empty := AggregateSemester("term-2", nil)
	assert.Nil(t, empty.GPA)
}

func TestAggregateCumulativeWeightsAcrossSemesters(t *testing.T) {
	// Heavy first semester must dominate: (18*4.0 + 3*2.0) / 21, not the
	// average of the two semester GPAs.
	first := AggregateSemester("term-1", []models.GradedCourse{gradedCourse("CS101", 18, 4.0, true)})
	second := AggregateSemester("term-2", []models.GradedCourse{gradedCourse("CS201", 3, 2.0, true)})

	summary := AggregateCumulative("stu-1", []models.SemesterSummary{first, second})
	require.NotNil(t, summary.CumulativeGPA)
	assert.InDelta(t, (18*4.0+3*2.0)/21, *summary.CumulativeGPA, 1e-9)
	assert.Equal(t, 21, summary.AttemptedCredits)
	assert.Equal(t, 21, summary.EarnedCredits)
}

func TestAggregateCumulativeFailedCreditsAttemptedNotEarned(t *testing.T) {
	semester := AggregateSemester("term-1", []models.GradedCourse{
		gradedCourse("CS101", 3, 3.0, true),
		gradedCourse("MA100", 4, 0.0, false),
	})
	summary := AggregateCumulative("stu-1", []models.SemesterSummary{semester})

	assert.Equal(t, 7, summary.AttemptedCredits)
	assert.Equal(t, 3, summary.EarnedCredits)
	require.NotNil(t, summary.CumulativeGPA)
	assert.InDelta(t, 9.0/7.0, *summary.CumulativeGPA, 1e-9)
}

func TestAggregateCumulativeEmptyHistory(t *testing.T) {
	summary := AggregateCumulative("stu-1", nil)
	assert.Nil(t, summary.CumulativeGPA)
	assert.Equal(t, 0, summary.AttemptedCredits)
	assert.Equal(t, 0, summary.EarnedCredits)
}

func TestAggregateCumulativeIdempotent(t *testing.T) {
	semesters := []models.SemesterSummary{
		AggregateSemester("term-1", []models.GradedCourse{gradedCourse("CS101", 3, 3.0, true)}),
		AggregateSemester("term-2", []models.GradedCourse{gradedCourse("CS201", 4, 4.0, true)}),
	}

	first := AggregateCumulative("stu-1", semesters)
	second := AggregateCumulative("stu-1", semesters)
	assert.Equal(t, first, second)
}
