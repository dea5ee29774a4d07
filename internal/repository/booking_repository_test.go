package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
)

func newBookingRepoMock(t *testing.T) (*BookingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewBookingRepository(sqlxDB), mock, func() { _ = sqlxDB.Close() }
}

func TestBookingRepositoryCreateAdmitted(t *testing.T) {
	repo, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("t-1/Mon 10:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM bookings WHERE teacher_id = $1 AND slot_label = $2 AND status <> 'cancelled' LIMIT 1")).
		WithArgs("t-1", "Mon 10:00").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := &models.Booking{
		TeacherID:   "t-1",
		StudentName: "Mina Park",
		SlotLabel:   "Mon 10:00",
		Status:      models.BookingPending,
	}
	err := repo.CreateAdmitted(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.False(t, booking.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAdmittedSlotHeld(t *testing.T) {
	repo, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("t-1/Mon 10:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM bookings WHERE teacher_id = $1 AND slot_label = $2 AND status <> 'cancelled' LIMIT 1")).
		WithArgs("t-1", "Mon 10:00").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	booking := &models.Booking{
		TeacherID:   "t-1",
		StudentName: "Mina Park",
		SlotLabel:   "Mon 10:00",
		Status:      models.BookingPending,
	}
	err := repo.CreateAdmitted(context.Background(), booking)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateAdmittedUniqueViolation(t *testing.T) {
	repo, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("t-1/Mon 10:00").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM bookings WHERE teacher_id = $1 AND slot_label = $2 AND status <> 'cancelled' LIMIT 1")).
		WithArgs("t-1", "Mon 10:00").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})
	mock.ExpectRollback()

	booking := &models.Booking{
		TeacherID:   "t-1",
		StudentName: "Mina Park",
		SlotLabel:   "Mon 10:00",
		Status:      models.BookingPending,
	}
	err := repo.CreateAdmitted(context.Background(), booking)
	require.ErrorIs(t, err, ErrSlotTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusFrom(t *testing.T) {
	repo, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("b-1", models.BookingPending, models.BookingConfirmed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateStatusFrom(context.Background(), "b-1", models.BookingPending, models.BookingConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusFromStale(t *testing.T) {
	repo, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("b-1", models.BookingPending, models.BookingCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatusFrom(context.Background(), "b-1", models.BookingPending, models.BookingCancelled)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListViewsByTeacher(t *testing.T) {
	repo, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "teacher_id", "student_id", "student_name", "slot_label", "status", "meeting_link", "created_at", "updated_at",
		"joined_student_id", "joined_student_name", "joined_student_image",
	}).
		AddRow("b-1", "t-1", "s-1", "Mina Park", "Mon 10:00", "confirmed", nil, now, now, "s-1", "Mina Park", nil).
		AddRow("b-2", "t-1", nil, "Walk In", "Tue 11:00", "pending", nil, now, now, nil, nil, nil)

	mock.ExpectQuery("SELECT b.id, b.teacher_id").
		WithArgs("t-1").
		WillReturnRows(rows)

	views, err := repo.ListViewsByTeacher(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, models.StudentRefLinked, views[0].Student.Kind)
	assert.Equal(t, "Mina Park", views[0].Student.Name)
	assert.Equal(t, models.StudentRefNamed, views[1].Student.Kind)
	assert.Equal(t, "Walk In", views[1].Student.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
