package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/academic"
	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

type transcriptGradeReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.GradedCourse, error)
	ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.GradedCourse, error)
}

type studentDetailReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// TranscriptService assembles academic summaries from published grades.
// Summaries are cached per student and invalidated on every grade write.
type TranscriptService struct {
	grades   transcriptGradeReader
	students studentDetailReader
	cache    *CacheService
	logger   *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(grades transcriptGradeReader, students studentDetailReader, cache *CacheService, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{grades: grades, students: students, cache: cache, logger: logger}
}

// GetAcademicSummary returns the student's full record: per-semester
// summaries in chronological order, cumulative GPA, standing, and the
// graduation decision when the student's program defines a requirement.
func (s *TranscriptService) GetAcademicSummary(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	cacheKey := transcriptCacheKey(studentID)
	var cached models.AcademicSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	student, err := s.students.FindDetailByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade history")
	}

	semesters := make([]models.SemesterSummary, 0)
	for _, group := range groupByTerm(grades) {
		semesters = append(semesters, academic.AggregateSemester(group.termID, group.courses))
	}

	summary := academic.AggregateCumulative(studentID, semesters)
	if summary.CumulativeGPA != nil {
		standing := academic.ClassifyStanding(*summary.CumulativeGPA)
		summary.Standing = &standing
	}
	if student.TotalCreditsRequired != nil && student.MinimumGPA != nil {
		requirement := models.ProgramRequirement{
			ProgramID:            student.ProgramID,
			TotalCreditsRequired: *student.TotalCreditsRequired,
			MinimumGPA:           *student.MinimumGPA,
		}
		graduation := academic.EvaluateGraduation(summary.EarnedCredits, summary.CumulativeGPA, requirement)
		summary.Graduation = &graduation
	}

	if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
		s.logger.Warn("failed to cache academic summary",
			zap.String("student_id", studentID), zap.Error(err))
	}
	return &summary, nil
}

// GetSemesterSummary rolls one term's grades for a student.
func (s *TranscriptService) GetSemesterSummary(ctx context.Context, studentID, termID string) (*models.SemesterSummary, error) {
	grades, err := s.grades.ListByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term grades")
	}
	summary := academic.AggregateSemester(termID, grades)
	return &summary, nil
}

type termGroup struct {
	termID  string
	courses []models.GradedCourse
}

// groupByTerm splits grades into per-term groups, preserving the input
// order. Grades arrive sorted by term start date, so the groups come out
// chronological.
func groupByTerm(grades []models.GradedCourse) []termGroup {
	index := make(map[string]int)
	groups := make([]termGroup, 0)
	for _, grade := range grades {
		i, ok := index[grade.TermID]
		if !ok {
			i = len(groups)
			index[grade.TermID] = i
			groups = append(groups, termGroup{termID: grade.TermID})
		}
		groups[i].courses = append(groups[i].courses, grade)
	}
	return groups
}

func transcriptCacheKey(studentID string) string {
	return "transcript:" + studentID + ":summary"
}

func transcriptCachePattern(studentID string) string {
	return "transcript:" + studentID + ":*"
}
