package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/academic"
	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

type gradeRepository interface {
	Upsert(ctx context.Context, grade *models.GradedCourse) error
	FindByStudentAndOffering(ctx context.Context, studentID, offeringID string) (*models.GradedCourse, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradedCourse, error)
	ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.GradedCourse, error)
}

type offeringDetailReader interface {
	FindOfferingDetail(ctx context.Context, id string) (*models.OfferingDetail, error)
}

type registrationLister interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
}

// SubmitMarksRequest carries raw component marks for publication.
type SubmitMarksRequest struct {
	StudentID  string  `json:"student_id" validate:"required"`
	OfferingID string  `json:"offering_id" validate:"required"`
	CATMarks   float64 `json:"cat_marks" validate:"min=0,max=30"`
	ExamMarks  float64 `json:"exam_marks" validate:"min=0,max=70"`
}

// MarkAbsentRequest flags a student who never sat the assessment.
type MarkAbsentRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// GradeService publishes grades and serves grade history. Publication
// replaces the whole grade row, so a re-submission never mixes component
// marks from different writes.
type GradeService struct {
	repo          gradeRepository
	offerings     offeringDetailReader
	registrations registrationLister
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(repo gradeRepository, offerings offeringDetailReader, registrations registrationLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, offerings: offerings, registrations: registrations, cache: cache, validator: validate, logger: logger}
}

// SubmitMarks computes and publishes a grade from component marks. The
// student must hold an APPROVED registration for the offering.
func (s *GradeService) SubmitMarks(ctx context.Context, req SubmitMarksRequest) (*models.GradedCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	detail, err := s.requireApprovedRegistration(ctx, req.StudentID, req.OfferingID)
	if err != nil {
		return nil, err
	}
	outcome, err := academic.ComputeGrade(req.CATMarks, req.ExamMarks)
	if err != nil {
		return nil, err
	}
	cat := req.CATMarks
	exam := req.ExamMarks
	grade := &models.GradedCourse{
		StudentID:   req.StudentID,
		OfferingID:  req.OfferingID,
		CourseCode:  detail.CourseCode,
		TermID:      detail.TermID,
		CreditHours: detail.CreditHours,
		CATMarks:    &cat,
		ExamMarks:   &exam,
		TotalMarks:  outcome.TotalMarks,
		LetterGrade: outcome.LetterGrade,
		GradePoints: outcome.GradePoints,
		Passed:      outcome.Passed,
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish grade")
	}
	s.invalidateTranscript(ctx, req.StudentID)
	return grade, nil
}

// MarkAbsent publishes an AB grade. An absence carries no marks and no
// grade points; it never enters GPA or earned-credit computation.
func (s *GradeService) MarkAbsent(ctx context.Context, req MarkAbsentRequest) (*models.GradedCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	detail, err := s.requireApprovedRegistration(ctx, req.StudentID, req.OfferingID)
	if err != nil {
		return nil, err
	}
	outcome := academic.AbsentOutcome()
	grade := &models.GradedCourse{
		StudentID:   req.StudentID,
		OfferingID:  req.OfferingID,
		CourseCode:  detail.CourseCode,
		TermID:      detail.TermID,
		CreditHours: detail.CreditHours,
		LetterGrade: outcome.LetterGrade,
		Passed:      outcome.Passed,
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish absence")
	}
	s.invalidateTranscript(ctx, req.StudentID)
	return grade, nil
}

// Find returns the published grade for a student and offering.
func (s *GradeService) Find(ctx context.Context, studentID, offeringID string) (*models.GradedCourse, error) {
	grade, err := s.repo.FindByStudentAndOffering(ctx, studentID, offeringID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	return grade, nil
}

// History returns a student's published grades in chronological order,
// optionally scoped to one term.
func (s *GradeService) History(ctx context.Context, studentID, termID string) ([]models.GradedCourse, error) {
	var grades []models.GradedCourse
	var err error
	if termID != "" {
		grades, err = s.repo.ListByStudentAndTerm(ctx, studentID, termID)
	} else {
		grades, err = s.repo.ListByStudent(ctx, studentID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade history")
	}
	return grades, nil
}

func (s *GradeService) requireApprovedRegistration(ctx context.Context, studentID, offeringID string) (*models.OfferingDetail, error) {
	detail, err := s.offerings.FindOfferingDetail(ctx, offeringID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	registrations, _, err := s.registrations.List(ctx, models.RegistrationFilter{
		StudentID:  studentID,
		OfferingID: offeringID,
		Status:     models.RegistrationStatusApproved,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	if len(registrations) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student has no approved registration for this offering")
	}
	return detail, nil
}

func (s *GradeService) invalidateTranscript(ctx context.Context, studentID string) {
	if err := s.cache.Invalidate(ctx, transcriptCachePattern(studentID)); err != nil {
		s.logger.Warn("failed to invalidate transcript cache",
			zap.String("student_id", studentID), zap.Error(err))
	}
}
