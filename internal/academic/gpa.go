package academic

import "github.com/Larrykj/School-App-sub001/internal/models"

// AggregateSemester rolls one term's published grades into a summary.
// GPA is the credit-weighted average of grade points over gradable courses
// only; absences contribute to neither numerator nor denominator. A term
// with zero gradable credits has a nil GPA, never 0.0.
func AggregateSemester(termID string, courses []models.GradedCourse) models.SemesterSummary {
	summary := models.SemesterSummary{TermID: termID, Courses: courses}

	weightedPoints := 0.0
	gradableCredits := 0
	for _, course := range courses {
		if !course.Gradable() {
			continue
		}
		weightedPoints += float64(course.CreditHours) * *course.GradePoints
		gradableCredits += course.CreditHours
		summary.AttemptedCredits += course.CreditHours
		if course.Passed {
			summary.EarnedCredits += course.CreditHours
		}
	}

	if gradableCredits > 0 {
		gpa := weightedPoints / float64(gradableCredits)
		summary.GPA = &gpa
	}
	return summary
}

// AggregateCumulative rolls semester summaries, in chronological order,
// into the student's full academic record. The cumulative GPA weights
// every gradable course by its credits across all semesters; it is not an
// average of semester GPAs, so heavier semesters dominate proportionally.
// Standing and graduation are left for the caller to fill in.
func AggregateCumulative(studentID string, semesters []models.SemesterSummary) models.AcademicSummary {
	summary := models.AcademicSummary{StudentID: studentID, Semesters: semesters}

	weightedPoints := 0.0
	gradableCredits := 0
	for _, semester := range semesters {
		for _, course := range semester.Courses {
			if !course.Gradable() {
				continue
			}
			weightedPoints += float64(course.CreditHours) * *course.GradePoints
			gradableCredits += course.CreditHours
		}
		summary.AttemptedCredits += semester.AttemptedCredits
		summary.EarnedCredits += semester.EarnedCredits
	}

	if gradableCredits > 0 {
		gpa := weightedPoints / float64(gradableCredits)
		summary.CumulativeGPA = &gpa
	}
	return summary
}
