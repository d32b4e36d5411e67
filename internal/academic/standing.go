package academic

import "github.com/Larrykj/School-App-sub001/internal/models"

// standingBand maps an inclusive lower bound on cumulative GPA to a
// standing category. Evaluated top-down, first match wins.
type standingBand struct {
	floor    float64
	category models.StandingCategory
}

var standingBands = []standingBand{
	{3.6, models.StandingFirstClass},
	{3.0, models.StandingSecondUpper},
	{2.5, models.StandingSecondLower},
	{2.0, models.StandingPass},
	{0, models.StandingProbation},
}

// ClassifyStanding maps a cumulative GPA onto its standing category.
func ClassifyStanding(cumulativeGPA float64) models.StandingCategory {
	for _, band := range standingBands {
		if cumulativeGPA >= band.floor {
			return band.category
		}
	}
	return models.StandingProbation
}

// EvaluateGraduation checks earned credits and cumulative GPA against the
// program requirement. Both conditions are evaluated and every failing one
// is reported, so a caller can show the complete remediation message.
// A nil GPA (no gradable work yet) fails the GPA condition.
func EvaluateGraduation(earnedCredits int, cumulativeGPA *float64, req models.ProgramRequirement) models.GraduationEligibility {
	result := models.GraduationEligibility{}

	if earnedCredits < req.TotalCreditsRequired {
		result.MissingCredits = req.TotalCreditsRequired - earnedCredits
		result.Blockers = append(result.Blockers, models.BlockerInsufficientCredits)
	}
	if cumulativeGPA == nil || *cumulativeGPA < req.MinimumGPA {
		result.Blockers = append(result.Blockers, models.BlockerGPABelowMinimum)
	}

	result.Eligible = len(result.Blockers) == 0
	return result
}
