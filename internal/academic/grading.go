package academic

import (
	"fmt"

	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

// GradeOutcome is the result of combining component marks for one course.
// GradePoints is nil only for absences.
type GradeOutcome struct {
	TotalMarks  *float64
	LetterGrade models.LetterGrade
	GradePoints *float64
	Passed      bool
}

// gradeBand maps an inclusive lower bound on total marks to a letter and
// grade points. Evaluated top-down, first match wins.
type gradeBand struct {
	floor  float64
	letter models.LetterGrade
	points float64
}

var gradeBands = []gradeBand{
	{70, models.GradeA, 4.0},
	{60, models.GradeB, 3.0},
	{50, models.GradeC, 2.0},
	{40, models.GradeD, 1.0},
	{0, models.GradeE, 0.0},
}

// ComputeGrade combines CAT and exam marks into a published grade. Both
// components arrive pre-scaled (CAT out of 30, exam out of 70), so the
// total is a plain sum out of 100. Out-of-range marks are a validation
// error and are never clamped.
func ComputeGrade(catMarks, examMarks float64) (GradeOutcome, error) {
	if catMarks < 0 || catMarks > models.MaxCATMarks {
		return GradeOutcome{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("cat marks %.2f outside [0, %.0f]", catMarks, models.MaxCATMarks))
	}
	if examMarks < 0 || examMarks > models.MaxExamMarks {
		return GradeOutcome{}, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("exam marks %.2f outside [0, %.0f]", examMarks, models.MaxExamMarks))
	}

	total := catMarks + examMarks
	letter, points := letterFor(total)
	return GradeOutcome{
		TotalMarks:  &total,
		LetterGrade: letter,
		GradePoints: &points,
		Passed:      letter != models.GradeE,
	}, nil
}

// AbsentOutcome is the terminal marker for a student who never sat the
// assessment. It carries no marks and no grade points, and is excluded
// from GPA and earned-credit computation entirely.
func AbsentOutcome() GradeOutcome {
	return GradeOutcome{LetterGrade: models.GradeAbsent}
}

func letterFor(total float64) (models.LetterGrade, float64) {
	for _, band := range gradeBands {
		if total >= band.floor {
			return band.letter, band.points
		}
	}
	return models.GradeE, 0.0
}
