package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Larrykj/School-App-sub001/internal/models"
)

func nowStamp() time.Time {
	return time.Now().UTC()
}

func TestRegistrationRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO registrations")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "off-1", "term-1", models.RegistrationStatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	registration := &models.Registration{
		StudentID:  "stu-1",
		OfferingID: "off-1",
		TermID:     "term-1",
		Status:     models.RegistrationStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), registration))
	require.NotEmpty(t, registration.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryListByStudentAndTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "offering_id", "term_id", "status", "drop_reason", "created_at", "updated_at"}).
		AddRow("reg-1", "stu-1", "off-1", "term-1", models.RegistrationStatusApproved, nil, nowStamp(), nowStamp()).
		AddRow("reg-2", "stu-1", "off-2", "term-1", models.RegistrationStatusDropped, "schedule conflict", nowStamp(), nowStamp())
	mock.ExpectQuery(regexp.QuoteMeta("FROM registrations WHERE student_id = $1 AND term_id = $2")).
		WithArgs("stu-1", "term-1").
		WillReturnRows(rows)

	registrations, err := repo.ListByStudentAndTerm(context.Background(), "stu-1", "term-1")
	require.NoError(t, err)
	require.Len(t, registrations, 2)
	require.Equal(t, models.RegistrationStatusDropped, registrations[1].Status)
	require.NotNil(t, registrations[1].DropReason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	reason := "withdrawn by student"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET status = $2, drop_reason = $3")).
		WithArgs("reg-1", models.RegistrationStatusDropped, reason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "reg-1", models.RegistrationStatusDropped, &reason))
	require.NoError(t, mock.ExpectationsWereMet())
}
