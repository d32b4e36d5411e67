package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Prerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error)
	FindOfferingDetail(ctx context.Context, id string) (*models.OfferingDetail, error)
	ListOfferingsByTerm(ctx context.Context, termID string) ([]models.OfferingDetail, error)
}

type termRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	ListChronological(ctx context.Context) ([]models.Term, error)
}

type programRequirementReader interface {
	RequirementByProgram(ctx context.Context, programID string) (*models.ProgramRequirement, error)
}

// CourseDetail bundles a course with its prerequisite edges.
type CourseDetail struct {
	models.Course
	Prerequisites []models.Prerequisite `json:"prerequisites"`
}

// CourseService serves the course catalog, offerings, terms, and program
// requirements.
type CourseService struct {
	repo     courseRepository
	terms    termRepository
	programs programRequirementReader
	logger   *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, terms termRepository, programs programRequirementReader, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, terms: terms, programs: programs, logger: logger}
}

// List returns catalog courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
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
	return courses, pagination, nil
}

// Find returns a course with its prerequisites in catalog order.
func (s *CourseService) Find(ctx context.Context, id string) (*CourseDetail, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	prereqs, err := s.repo.Prerequisites(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	return &CourseDetail{Course: *course, Prerequisites: prereqs}, nil
}

// FindOffering returns an offering with course and term context.
func (s *CourseService) FindOffering(ctx context.Context, id string) (*models.OfferingDetail, error) {
	detail, err := s.repo.FindOfferingDetail(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return detail, nil
}

// ListOfferings returns all offerings for a term.
func (s *CourseService) ListOfferings(ctx context.Context, termID string) ([]models.OfferingDetail, error) {
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	offerings, err := s.repo.ListOfferingsByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, nil
}

// ProgramRequirement returns the graduation requirement for a program.
func (s *CourseService) ProgramRequirement(ctx context.Context, programID string) (*models.ProgramRequirement, error) {
	requirement, err := s.programs.RequirementByProgram(ctx, programID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program requirement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program requirement")
	}
	return requirement, nil
}

// ListTerms returns every term, oldest first.
func (s *CourseService) ListTerms(ctx context.Context) ([]models.Term, error) {
	terms, err := s.terms.ListChronological(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}
