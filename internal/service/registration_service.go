package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/academic"
	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

type registrationRepository interface {
	Create(ctx context.Context, registration *models.Registration) error
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, dropReason *string) error
}

type offeringRepository interface {
	FindOffering(ctx context.Context, id string) (*models.CourseOffering, error)
	Prerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error)
	ClaimSeat(ctx context.Context, offeringID string) (bool, error)
	ReleaseSeat(ctx context.Context, offeringID string) error
}

type gradeHistoryReader interface {
	CompletedCourses(ctx context.Context, studentID string) ([]models.CompletedCourse, error)
	ExistsForOffering(ctx context.Context, studentID, offeringID string) (bool, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// RegisterRequest describes a registration attempt.
type RegisterRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// DropRequest carries the reason a registration is dropped or rejected.
// ActorStudentID, when set, restricts the drop to registrations owned by
// that student.
type DropRequest struct {
	Reason         string `json:"reason" validate:"required"`
	ActorStudentID string `json:"-"`
}

// RegistrationService orchestrates the registration workflow: advisory
// eligibility checks, the committing seat claim, and status transitions.
type RegistrationService struct {
	repo       registrationRepository
	offerings  offeringRepository
	grades     gradeHistoryReader
	students   studentReader
	terms      termReader
	metrics    *MetricsService
	maxRetries int
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewRegistrationService constructs RegistrationService. maxRetries bounds
// how many times a lost seat claim is retried before giving up.
func NewRegistrationService(repo registrationRepository, offerings offeringRepository, grades gradeHistoryReader, students studentReader, terms termReader, metrics *MetricsService, maxRetries int, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &RegistrationService{
		repo:       repo,
		offerings:  offerings,
		grades:     grades,
		students:   students,
		terms:      terms,
		metrics:    metrics,
		maxRetries: maxRetries,
		validator:  validate,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CheckEligibility evaluates whether a student could register for an
// offering right now. The result is advisory: capacity can change between
// this check and an actual registration.
func (s *RegistrationService) CheckEligibility(ctx context.Context, studentID, offeringID string) (*models.EligibilityResult, error) {
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}
	input, err := s.loadEligibilityInput(ctx, studentID, offeringID)
	if err != nil {
		return nil, err
	}
	result := academic.EvaluateRegistration(*input)
	return &result, nil
}

// Register creates a PENDING registration after claiming a seat. The
// eligibility rules are re-evaluated here regardless of any earlier
// advisory check. A lost seat claim re-runs the full evaluation against
// fresh capacity; after maxRetries lost claims the attempt fails with a
// concurrency conflict, the only retryable refusal.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student inactive")
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		input, err := s.loadEligibilityInput(ctx, req.StudentID, req.OfferingID)
		if err != nil {
			return nil, err
		}
		result := academic.EvaluateRegistration(*input)
		if !result.CanRegister {
			return nil, refusalError(result)
		}

		claimed, err := s.offerings.ClaimSeat(ctx, req.OfferingID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim seat")
		}
		if !claimed {
			s.metrics.RecordRegistrationConflict()
			s.logger.Info("seat claim lost to concurrent registration",
				zap.String("offering_id", req.OfferingID),
				zap.Int("attempt", attempt+1))
			continue
		}

		registration := &models.Registration{
			StudentID:  req.StudentID,
			OfferingID: req.OfferingID,
			TermID:     input.Offering.TermID,
			Status:     models.RegistrationStatusPending,
		}
		if err := s.repo.Create(ctx, registration); err != nil {
			if releaseErr := s.offerings.ReleaseSeat(ctx, req.OfferingID); releaseErr != nil {
				s.logger.Error("failed to release seat after create failure",
					zap.String("offering_id", req.OfferingID), zap.Error(releaseErr))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
		}
		return registration, nil
	}

	return nil, appErrors.Clone(appErrors.ErrConcurrencyConflict, "")
}

// Approve moves a PENDING registration to APPROVED.
func (s *RegistrationService) Approve(ctx context.Context, id string) (*models.Registration, error) {
	return s.transition(ctx, id, models.RegistrationStatusApproved, nil, false)
}

// Reject moves a PENDING registration to REJECTED and returns its seat.
func (s *RegistrationService) Reject(ctx context.Context, id string, req DropRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	return s.transition(ctx, id, models.RegistrationStatusRejected, &req.Reason, true)
}

// Drop moves an APPROVED registration to DROPPED and returns its seat.
// A registration with a published grade can no longer be dropped.
func (s *RegistrationService) Drop(ctx context.Context, id string, req DropRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if req.ActorStudentID != "" && registration.StudentID != req.ActorStudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration belongs to another student")
	}
	published, err := s.grades.ExistsForOffering(ctx, registration.StudentID, registration.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check published grades")
	}
	if published {
		return nil, appErrors.Clone(appErrors.ErrGradePublished, "registration has a published grade and cannot be dropped")
	}
	return s.transition(ctx, id, models.RegistrationStatusDropped, &req.Reason, true)
}

// List returns registrations with pagination metadata.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, *models.Pagination, error) {
	registrations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return registrations, pagination, nil
}

// ListByStudentAndTerm returns every registration a student holds in a term.
func (s *RegistrationService) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	registrations, err := s.repo.ListByStudentAndTerm(ctx, studentID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

func (s *RegistrationService) transition(ctx context.Context, id string, next models.RegistrationStatus, reason *string, releaseSeat bool) (*models.Registration, error) {
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if !registration.Status.CanTransition(next) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "registration cannot move from "+string(registration.Status)+" to "+string(next))
	}
	if err := s.repo.UpdateStatus(ctx, id, next, reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}
	if releaseSeat {
		if err := s.offerings.ReleaseSeat(ctx, registration.OfferingID); err != nil {
			s.logger.Error("failed to release seat",
				zap.String("offering_id", registration.OfferingID), zap.Error(err))
		}
	}
	registration.Status = next
	registration.DropReason = reason
	return registration, nil
}

func (s *RegistrationService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *RegistrationService) loadEligibilityInput(ctx context.Context, studentID, offeringID string) (*academic.EligibilityInput, error) {
	offering, err := s.offerings.FindOffering(ctx, offeringID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	term, err := s.terms.FindByID(ctx, offering.TermID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	prereqs, err := s.offerings.Prerequisites(ctx, offering.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	history, err := s.grades.CompletedCourses(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course history")
	}
	existing, err := s.repo.ListByStudentAndTerm(ctx, studentID, offering.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	return &academic.EligibilityInput{
		History:       history,
		Prerequisites: prereqs,
		Offering:      *offering,
		Window:        term.Window(),
		Now:           s.now(),
		Existing:      existing,
	}, nil
}

// refusalError maps the primary ineligibility reason onto a typed error.
func refusalError(result models.EligibilityResult) error {
	if result.Reason == nil {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "registration refused")
	}
	switch *result.Reason {
	case models.ReasonRegistrationClosed:
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "registration window is closed")
	case models.ReasonAlreadyRegistered:
		return appErrors.Clone(appErrors.ErrConflict, "student already registered for this offering")
	case models.ReasonMissingPrerequisites:
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "missing prerequisites: "+strings.Join(result.MissingPrerequisites, ", "))
	case models.ReasonOfferingFull:
		return appErrors.Clone(appErrors.ErrConflict, "offering is full")
	default:
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "registration refused")
	}
}
