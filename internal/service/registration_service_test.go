package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

type mockRegistrationRepo struct {
	registrations map[string]models.Registration
	byStudentTerm []models.Registration
	created       *models.Registration
	status        map[string]models.RegistrationStatus
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if m.registrations == nil {
		m.registrations = make(map[string]models.Registration)
	}
	if registration.ID == "" {
		registration.ID = "new-reg"
	}
	m.registrations[registration.ID] = *registration
	m.created = registration
	return nil
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if r, ok := m.registrations[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.Registration, error) {
	return m.byStudentTerm, nil
}

func (m *mockRegistrationRepo) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	return m.byStudentTerm, len(m.byStudentTerm), nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, dropReason *string) error {
	if m.status == nil {
		m.status = make(map[string]models.RegistrationStatus)
	}
	m.status[id] = status
	if r, ok := m.registrations[id]; ok {
		r.Status = status
		r.DropReason = dropReason
		m.registrations[id] = r
	}
	return nil
}

type mockOfferingRepo struct {
	offering     models.CourseOffering
	prereqs      []models.Prerequisite
	claimResults []bool
	claims       int
	released     int
}

func (m *mockOfferingRepo) FindOffering(ctx context.Context, id string) (*models.CourseOffering, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	offering := m.offering
	offering.ID = id
	return &offering, nil
}

func (m *mockOfferingRepo) Prerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error) {
	return m.prereqs, nil
}

func (m *mockOfferingRepo) ClaimSeat(ctx context.Context, offeringID string) (bool, error) {
	if m.claims < len(m.claimResults) {
		result := m.claimResults[m.claims]
		m.claims++
		return result, nil
	}
	m.claims++
	return true, nil
}

func (m *mockOfferingRepo) ReleaseSeat(ctx context.Context, offeringID string) error {
	m.released++
	return nil
}

type mockGradeHistory struct {
	completed []models.CompletedCourse
	published map[string]bool
}

func (m *mockGradeHistory) CompletedCourses(ctx context.Context, studentID string) ([]models.CompletedCourse, error) {
	return m.completed, nil
}

func (m *mockGradeHistory) ExistsForOffering(ctx context.Context, studentID, offeringID string) (bool, error) {
	return m.published[studentID+offeringID], nil
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockTermReader struct {
	term models.Term
}

func (m *mockTermReader) FindByID(ctx context.Context, id string) (*models.Term, error) {
	term := m.term
	term.ID = id
	return &term, nil
}

func openTerm() models.Term {
	now := time.Now().UTC()
	return models.Term{
		RegistrationStart: now.Add(-24 * time.Hour),
		RegistrationEnd:   now.Add(24 * time.Hour),
	}
}

func closedTerm() models.Term {
	now := time.Now().UTC()
	return models.Term{
		RegistrationStart: now.Add(-48 * time.Hour),
		RegistrationEnd:   now.Add(-24 * time.Hour),
	}
}

func newRegistrationService(repo *mockRegistrationRepo, offerings *mockOfferingRepo, grades *mockGradeHistory, terms *mockTermReader) *RegistrationService {
	students := &mockStudentReader{students: map[string]*models.Student{"s1": {ID: "s1", Active: true}}}
	return NewRegistrationService(repo, offerings, grades, students, terms, nil, 3, validator.New(), zap.NewNop())
}

func TestRegistrationServiceRegister(t *testing.T) {
	repo := &mockRegistrationRepo{}
	offerings := &mockOfferingRepo{offering: models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 30, EnrolledCount: 10}}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	registration, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", OfferingID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusPending, registration.Status)
	assert.Equal(t, "t1", registration.TermID)
	assert.NotNil(t, repo.created)
	assert.Equal(t, 1, offerings.claims)
}

func TestRegistrationServiceRegisterRetriesLostClaim(t *testing.T) {
	repo := &mockRegistrationRepo{}
	offerings := &mockOfferingRepo{
		offering:     models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 30, EnrolledCount: 10},
		claimResults: []bool{false, true},
	}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	registration, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", OfferingID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusPending, registration.Status)
	assert.Equal(t, 2, offerings.claims)
}

func TestRegistrationServiceRegisterConflictAfterRetries(t *testing.T) {
	repo := &mockRegistrationRepo{}
	offerings := &mockOfferingRepo{
		offering:     models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 30, EnrolledCount: 10},
		claimResults: []bool{false, false, false},
	}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	_, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", OfferingID: "o1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConcurrencyConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestRegistrationServiceRegisterWindowClosed(t *testing.T) {
	repo := &mockRegistrationRepo{}
	offerings := &mockOfferingRepo{offering: models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 30}}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: closedTerm()})

	_, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", OfferingID: "o1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, offerings.claims)
}

func TestRegistrationServiceRegisterMissingPrerequisites(t *testing.T) {
	repo := &mockRegistrationRepo{}
	offerings := &mockOfferingRepo{
		offering: models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 30},
		prereqs:  []models.Prerequisite{{CourseID: "c1", RequiredCode: "MATH101", IsStrict: true}},
	}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	_, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", OfferingID: "o1"})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "MATH101")
}

func TestRegistrationServiceRegisterDuplicate(t *testing.T) {
	repo := &mockRegistrationRepo{byStudentTerm: []models.Registration{
		{ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusApproved},
	}}
	offerings := &mockOfferingRepo{offering: models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 30}}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	_, err := svc.Register(context.Background(), RegisterRequest{StudentID: "s1", OfferingID: "o1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCheckEligibility(t *testing.T) {
	repo := &mockRegistrationRepo{}
	offerings := &mockOfferingRepo{
		offering: models.CourseOffering{CourseID: "c1", TermID: "t1", MaxStudents: 2, EnrolledCount: 2},
		prereqs: []models.Prerequisite{
			{CourseID: "c1", RequiredCode: "MATH101", IsStrict: true, Position: 0},
			{CourseID: "c1", RequiredCode: "PHYS101", IsStrict: true, Position: 1},
		},
	}
	grades := &mockGradeHistory{completed: []models.CompletedCourse{{CourseCode: "MATH101", Passed: true}}}
	svc := newRegistrationService(repo, offerings, grades, &mockTermReader{term: openTerm()})

	result, err := svc.CheckEligibility(context.Background(), "s1", "o1")
	require.NoError(t, err)
	assert.False(t, result.CanRegister)
	assert.True(t, result.IsFull)
	assert.Equal(t, []string{"PHYS101"}, result.MissingPrerequisites)
	require.NotNil(t, result.Reason)
	assert.Equal(t, models.ReasonMissingPrerequisites, *result.Reason)
}

func TestRegistrationServiceApprove(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusPending},
	}}
	offerings := &mockOfferingRepo{}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	registration, err := svc.Approve(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusApproved, registration.Status)
	assert.Equal(t, 0, offerings.released)
}

func TestRegistrationServiceRejectReleasesSeat(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusPending},
	}}
	offerings := &mockOfferingRepo{}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	registration, err := svc.Reject(context.Background(), "r1", DropRequest{Reason: "quota review"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusRejected, registration.Status)
	assert.Equal(t, 1, offerings.released)
}

func TestRegistrationServiceDrop(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusApproved},
	}}
	offerings := &mockOfferingRepo{}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	registration, err := svc.Drop(context.Background(), "r1", DropRequest{Reason: "schedule clash"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusDropped, registration.Status)
	require.NotNil(t, registration.DropReason)
	assert.Equal(t, "schedule clash", *registration.DropReason)
	assert.Equal(t, 1, offerings.released)
}

func TestRegistrationServiceDropOwnershipEnforced(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusApproved},
	}}
	offerings := &mockOfferingRepo{}
	svc := newRegistrationService(repo, offerings, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	_, err := svc.Drop(context.Background(), "r1", DropRequest{Reason: "not mine", ActorStudentID: "s2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, offerings.released)

	registration, err := svc.Drop(context.Background(), "r1", DropRequest{Reason: "schedule clash", ActorStudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusDropped, registration.Status)
}

func TestRegistrationServiceDropBlockedByPublishedGrade(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusApproved},
	}}
	grades := &mockGradeHistory{published: map[string]bool{"s1o1": true}}
	offerings := &mockOfferingRepo{}
	svc := newRegistrationService(repo, offerings, grades, &mockTermReader{term: openTerm()})

	_, err := svc.Drop(context.Background(), "r1", DropRequest{Reason: "too late"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGradePublished.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, offerings.released)
}

func TestRegistrationServiceInvalidTransition(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: map[string]models.Registration{
		"r1": {ID: "r1", StudentID: "s1", OfferingID: "o1", Status: models.RegistrationStatusRejected},
	}}
	svc := newRegistrationService(repo, &mockOfferingRepo{}, &mockGradeHistory{}, &mockTermReader{term: openTerm()})

	_, err := svc.Approve(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
