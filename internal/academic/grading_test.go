package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

func TestComputeGradeBoundaries(t *testing.T) {
	cases := []struct {
		name      string
		cat, exam float64
		letter    models.LetterGrade
		points    float64
	}{
		{"exact A floor", 30, 40, models.GradeA, 4.0},
		{"just below A", 29.999, 40, models.GradeB, 3.0},
		{"exact B floor", 20, 40, models.GradeB, 3.0},
		{"exact C floor", 10, 40, models.GradeC, 2.0},
		{"exact D floor", 0, 40, models.GradeD, 1.0},
		{"just below D", 0, 39.999, models.GradeE, 0.0},
		{"zero", 0, 0, models.GradeE, 0.0},
		{"perfect", 30, 70, models.GradeA, 4.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := ComputeGrade(tc.cat, tc.exam)
			require.NoError(t, err)
			require.NotNil(t, outcome.TotalMarks)
			assert.InDelta(t, tc.cat+tc.exam, *outcome.TotalMarks, 1e-9)
			assert.Equal(t, tc.letter, outcome.LetterGrade)
			require.NotNil(t, outcome.GradePoints)
			assert.Equal(t, tc.points, *outcome.GradePoints)
		})
	}
}

func TestComputeGradePassThreshold(t *testing.T) {
	passing, err := ComputeGrade(10, 30)
	require.NoError(t, err)
	assert.Equal(t, models.GradeD, passing.LetterGrade)
	assert.True(t, passing.Passed)

	failing, err := ComputeGrade(10, 29)
	require.NoError(t, err)
	assert.Equal(t, models.GradeE, failing.LetterGrade)
	assert.False(t, failing.Passed)
}

func TestComputeGradeRejectsOutOfRangeMarks(t *testing.T) {
	cases := []struct {
		name      string
		cat, exam float64
	}{
		{"cat above bound", 30.5, 40},
		{"cat negative", -1, 40},
		{"exam above bound", 20, 70.5},
		{"exam negative", 20, -0.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeGrade(tc.cat, tc.exam)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		})
	}
}

func TestAbsentOutcomeIsDistinctFromZero(t *testing.T) {
	absent := AbsentOutcome()
	assert.Equal(t, models.GradeAbsent, absent.LetterGrade)
	assert.Nil(t, absent.TotalMarks)
	assert.Nil(t, absent.GradePoints)
	assert.False(t, absent.Passed)

	zero, err := ComputeGrade(0, 0)
	require.NoError(t, err)
	require.NotNil(t, zero.GradePoints)
	assert.Equal(t, models.GradeE, zero.LetterGrade)
}
