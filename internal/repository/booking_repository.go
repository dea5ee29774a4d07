package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
)

// ErrSlotTaken reports that a non-cancelled booking already holds the
// (teacher, slot) pair.
var ErrSlotTaken = errors.New("slot already held by an active booking")

const pqUniqueViolation = "23505"

// BookingRepository manages persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = "id, teacher_id, student_id, student_name, slot_label, status, meeting_link, created_at, updated_at"

// FindByID fetches a booking by ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateAdmitted checks the slot-conflict invariant and inserts the booking
// as one admission decision. Attempts for the same (teacher, slot) pair are
// serialized with a transaction-scoped advisory lock; the partial unique
// index on non-cancelled bookings backstops the check. Returns ErrSlotTaken
// when the pair is already held.
func (r *BookingRepository) CreateAdmitted(ctx context.Context, booking *models.Booking) (err error) {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admission transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockKey := booking.TeacherID + "/" + booking.SlotLabel
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire slot lock: %w", err)
	}

	var held int
	const conflictQuery = `SELECT 1 FROM bookings WHERE teacher_id = $1 AND slot_label = $2 AND status <> 'cancelled' LIMIT 1`
	err = tx.GetContext(ctx, &held, conflictQuery, booking.TeacherID, booking.SlotLabel)
	if err == nil {
		err = ErrSlotTaken
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check slot conflict: %w", err)
	}
	err = nil

	const insertQuery = `INSERT INTO bookings (id, teacher_id, student_id, student_name, slot_label, status, meeting_link, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_id, :student_name, :slot_label, :status, :meeting_link, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, booking); err != nil {
		if isUniqueViolation(err) {
			err = ErrSlotTaken
			return err
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit admission: %w", err)
	}
	return nil
}

// UpdateStatusFrom moves a booking to next only when it still holds the
// expected current status. Returns false when no row matched, which means
// the booking is absent or was transitioned concurrently.
func (r *BookingRepository) UpdateStatusFrom(ctx context.Context, id string, current, next models.BookingStatus) (bool, error) {
	const query = `UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, current, next, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update booking status rows: %w", err)
	}
	return affected > 0, nil
}

// SetMeetingLink attaches a meeting link to a booking.
func (r *BookingRepository) SetMeetingLink(ctx context.Context, id, link string) (bool, error) {
	const query = `UPDATE bookings SET meeting_link = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, link, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("set meeting link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set meeting link rows: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a booking row. Returns false when nothing was deleted.
func (r *BookingRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM bookings WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete booking rows: %w", err)
	}
	return affected > 0, nil
}

type bookingStudentRow struct {
	models.Booking
	JoinedStudentID    *string `db:"joined_student_id"`
	JoinedStudentName  *string `db:"joined_student_name"`
	JoinedStudentImage *string `db:"joined_student_image"`
}

func (row bookingStudentRow) toView() models.BookingView {
	view := models.BookingView{Booking: row.Booking}
	if row.JoinedStudentID != nil {
		student := models.Student{ID: *row.JoinedStudentID}
		if row.JoinedStudentName != nil {
			student.Name = *row.JoinedStudentName
		}
		if row.JoinedStudentImage != nil {
			student.ProfileImage = *row.JoinedStudentImage
		}
		view.Student = models.LinkedStudent(&student)
	} else {
		view.Student = models.NamedStudent(row.StudentName)
	}
	return view
}

// ListViewsByTeacher returns a teacher's bookings newest first with the
// student reference resolved to either a linked record or a name fallback.
func (r *BookingRepository) ListViewsByTeacher(ctx context.Context, teacherID string) ([]models.BookingView, error) {
	const query = `SELECT b.id, b.teacher_id, b.student_id, b.student_name, b.slot_label, b.status, b.meeting_link, b.created_at, b.updated_at,
			s.id AS joined_student_id, s.name AS joined_student_name, s.profile_image AS joined_student_image
		FROM bookings b
		LEFT JOIN students s ON s.id = b.student_id
		WHERE b.teacher_id = $1
		ORDER BY b.created_at DESC`
	var rows []bookingStudentRow
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher bookings: %w", err)
	}
	views := make([]models.BookingView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toView())
	}
	return views, nil
}

// ListByStudent returns bookings created by a student, matched by linked id
// or by the free-text name fallback.
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID, studentName string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE ($1 <> '' AND student_id = $1) OR ($2 <> '' AND student_name = $2) ORDER BY created_at DESC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, studentID, studentName); err != nil {
		return nil, fmt.Errorf("list student bookings: %w", err)
	}
	return bookings, nil
}

// HistoryForLink returns a student's booking history with one teacher,
// newest first.
func (r *BookingRepository) HistoryForLink(ctx context.Context, teacherID, studentID, studentName string) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE teacher_id = $1 AND (student_id = $2 OR student_name = $3) ORDER BY created_at DESC", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID, studentID, studentName); err != nil {
		return nil, fmt.Errorf("booking history: %w", err)
	}
	return bookings, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}
	return false
}
