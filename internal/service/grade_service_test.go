package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Larrykj/School-App-sub001/internal/models"
	appErrors "github.com/Larrykj/School-App-sub001/pkg/errors"
)

type mockGradeRepo struct {
	grades   map[string]models.GradedCourse
	upserted *models.GradedCourse
	history  []models.GradedCourse
}

func gradeKey(studentID, offeringID string) string {
	return studentID + "|" + offeringID
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.GradedCourse) error {
	if m.grades == nil {
		m.grades = make(map[string]models.GradedCourse)
	}
	if grade.ID == "" {
		grade.ID = "new-grade"
	}
	m.grades[gradeKey(grade.StudentID, grade.OfferingID)] = *grade
	m.upserted = grade
	return nil
}

func (m *mockGradeRepo) FindByStudentAndOffering(ctx context.Context, studentID, offeringID string) (*models.GradedCourse, error) {
	if g, ok := m.grades[gradeKey(studentID, offeringID)]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.GradedCourse, error) {
	return m.history, nil
}

func (m *mockGradeRepo) ListByStudentAndTerm(ctx context.Context, studentID, termID string) ([]models.GradedCourse, error) {
	var grades []models.GradedCourse
	for _, g := range m.history {
		if g.TermID == termID {
			grades = append(grades, g)
		}
	}
	return grades, nil
}

type mockOfferingDetailReader struct{}

func (m *mockOfferingDetailReader) FindOfferingDetail(ctx context.Context, id string) (*models.OfferingDetail, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.OfferingDetail{
		CourseOffering: models.CourseOffering{ID: id, CourseID: "c1", TermID: "t1"},
		CourseCode:     "CS201",
		CourseName:     "Data Structures",
		CreditHours:    3,
	}, nil
}

type mockRegistrationLister struct {
	approved bool
}

func (m *mockRegistrationLister) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	if !m.approved {
		return nil, 0, nil
	}
	return []models.Registration{{ID: "r1", StudentID: filter.StudentID, OfferingID: filter.OfferingID, Status: models.RegistrationStatusApproved}}, 1, nil
}

func newGradeService(repo *mockGradeRepo, registrations *mockRegistrationLister) *GradeService {
	return NewGradeService(repo, &mockOfferingDetailReader{}, registrations, nil, validator.New(), zap.NewNop())
}

func TestGradeServiceSubmitMarks(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := newGradeService(repo, &mockRegistrationLister{approved: true})

	grade, err := svc.SubmitMarks(context.Background(), SubmitMarksRequest{
		StudentID: "s1", OfferingID: "o1", CATMarks: 25, ExamMarks: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GradeA, grade.LetterGrade)
	require.NotNil(t, grade.TotalMarks)
	assert.InDelta(t, 75.0, *grade.TotalMarks, 1e-9)
	require.NotNil(t, grade.GradePoints)
	assert.InDelta(t, 4.0, *grade.GradePoints, 1e-9)
	assert.True(t, grade.Passed)
	assert.Equal(t, "CS201", grade.CourseCode)
	assert.Equal(t, 3, grade.CreditHours)
	assert.NotNil(t, repo.upserted)
}

func TestGradeServiceSubmitMarksReplacesWholeRow(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := newGradeService(repo, &mockRegistrationLister{approved: true})

	_, err := svc.SubmitMarks(context.Background(), SubmitMarksRequest{
		StudentID: "s1", OfferingID: "o1", CATMarks: 28, ExamMarks: 60,
	})
	require.NoError(t, err)

	grade, err := svc.SubmitMarks(context.Background(), SubmitMarksRequest{
		StudentID: "s1", OfferingID: "o1", CATMarks: 10, ExamMarks: 35,
	})
	require.NoError(t, err)
	require.NotNil(t, grade.CATMarks)
	assert.InDelta(t, 10.0, *grade.CATMarks, 1e-9)
	require.NotNil(t, grade.TotalMarks)
	assert.InDelta(t, 45.0, *grade.TotalMarks, 1e-9)
	assert.Equal(t, models.GradeD, grade.LetterGrade)

	stored := repo.grades[gradeKey("s1", "o1")]
	assert.InDelta(t, 10.0, *stored.CATMarks, 1e-9)
}

func TestGradeServiceSubmitMarksRequiresApprovedRegistration(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockRegistrationLister{approved: false})

	_, err := svc.SubmitMarks(context.Background(), SubmitMarksRequest{
		StudentID: "s1", OfferingID: "o1", CATMarks: 20, ExamMarks: 40,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceSubmitMarksOutOfRange(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockRegistrationLister{approved: true})

	_, err := svc.SubmitMarks(context.Background(), SubmitMarksRequest{
		StudentID: "s1", OfferingID: "o1", CATMarks: 31, ExamMarks: 40,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceMarkAbsent(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := newGradeService(repo, &mockRegistrationLister{approved: true})

	grade, err := svc.MarkAbsent(context.Background(), MarkAbsentRequest{StudentID: "s1", OfferingID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, models.GradeAbsent, grade.LetterGrade)
	assert.Nil(t, grade.CATMarks)
	assert.Nil(t, grade.TotalMarks)
	assert.Nil(t, grade.GradePoints)
	assert.False(t, grade.Passed)
}

func TestGradeServiceHistoryByTerm(t *testing.T) {
	points := 3.0
	repo := &mockGradeRepo{history: []models.GradedCourse{
		{StudentID: "s1", TermID: "t1", CourseCode: "CS201", GradePoints: &points},
		{StudentID: "s1", TermID: "t2", CourseCode: "CS301", GradePoints: &points},
	}}
	svc := newGradeService(repo, &mockRegistrationLister{approved: true})

	grades, err := svc.History(context.Background(), "s1", "t2")
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "CS301", grades[0].CourseCode)

	all, err := svc.History(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGradeServiceFindNotFound(t *testing.T) {
	svc := newGradeService(&mockGradeRepo{}, &mockRegistrationLister{approved: true})

	_, err := svc.Find(context.Background(), "s1", "o1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
