package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
)

// ErrRosterFull reports that the teacher already holds the maximum number of
// active student links.
var ErrRosterFull = errors.New("teacher roster is at capacity")

// ErrRequestResolved reports that the request was already accepted or
// ignored.
var ErrRequestResolved = errors.New("request already resolved")

// StudentRequestRepository manages student-teacher linking requests.
type StudentRequestRepository struct {
	db *sqlx.DB
}

// NewStudentRequestRepository constructs a StudentRequestRepository.
func NewStudentRequestRepository(db *sqlx.DB) *StudentRequestRepository {
	return &StudentRequestRepository{db: db}
}

// Create inserts a new pending request.
func (r *StudentRequestRepository) Create(ctx context.Context, request *models.StudentRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	const query = `INSERT INTO student_requests (id, teacher_id, student_id, status, request_message, created_at, updated_at)
		VALUES (:id, :teacher_id, :student_id, :status, :request_message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create student request: %w", err)
	}
	return nil
}

// FindByID fetches a request by ID.
func (r *StudentRequestRepository) FindByID(ctx context.Context, id string) (*models.StudentRequest, error) {
	const query = `SELECT id, teacher_id, student_id, status, request_message, created_at, updated_at FROM student_requests WHERE id = $1`
	var request models.StudentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

type pendingRequestRow struct {
	models.StudentRequest
	StudentName  string `db:"s_name"`
	StudentRegNo string `db:"s_registration_number"`
	StudentImage string `db:"s_profile_image"`
	StudentGrade string `db:"s_grade"`
}

// ListPendingByTeacher returns a teacher's pending requests with the
// requesting students resolved.
func (r *StudentRequestRepository) ListPendingByTeacher(ctx context.Context, teacherID string) ([]models.PendingRequest, error) {
	const query = `SELECT r.id, r.teacher_id, r.student_id, r.status, r.request_message, r.created_at, r.updated_at,
			s.name AS s_name, s.registration_number AS s_registration_number, s.profile_image AS s_profile_image, s.grade AS s_grade
		FROM student_requests r
		JOIN students s ON s.id = r.student_id
		WHERE r.teacher_id = $1 AND r.status = 'pending'
		ORDER BY r.created_at ASC`
	var rows []pendingRequestRow
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	out := make([]models.PendingRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PendingRequest{
			StudentRequest: row.StudentRequest,
			Student: models.Student{
				ID:                 row.StudentID,
				Name:               row.StudentName,
				RegistrationNumber: row.StudentRegNo,
				ProfileImage:       row.StudentImage,
				Grade:              row.StudentGrade,
			},
		})
	}
	return out, nil
}

// Accept resolves a pending request by creating the teacher-student link and
// marking the request accepted, atomically. The capacity check and the link
// insert run under a per-teacher advisory lock so concurrent accepts cannot
// overshoot maxStudents. On ErrRosterFull the request stays pending.
func (r *StudentRequestRepository) Accept(ctx context.Context, requestID string, maxStudents int) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var request models.StudentRequest
	const selectQuery = `SELECT id, teacher_id, student_id, status, request_message, created_at, updated_at FROM student_requests WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &request, selectQuery, requestID); err != nil {
		return err
	}
	if request.Status != models.RequestPending {
		err = ErrRequestResolved
		return err
	}

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, request.TeacherID); err != nil {
		return fmt.Errorf("acquire roster lock: %w", err)
	}

	var linked int
	const countQuery = `SELECT COUNT(*) FROM teacher_students WHERE teacher_id = $1`
	if err = tx.GetContext(ctx, &linked, countQuery, request.TeacherID); err != nil {
		return fmt.Errorf("count roster links: %w", err)
	}

	var exists int
	const existsQuery = `SELECT 1 FROM teacher_students WHERE teacher_id = $1 AND student_id = $2 LIMIT 1`
	err = tx.GetContext(ctx, &exists, existsQuery, request.TeacherID, request.StudentID)
	alreadyLinked := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check existing link: %w", err)
	}
	err = nil

	if !alreadyLinked {
		if linked >= maxStudents {
			err = ErrRosterFull
			return err
		}
		const insertQuery = `INSERT INTO teacher_students (id, teacher_id, student_id, created_at) VALUES ($1, $2, $3, $4)`
		if _, err = tx.ExecContext(ctx, insertQuery, uuid.NewString(), request.TeacherID, request.StudentID, time.Now().UTC()); err != nil {
			return fmt.Errorf("insert roster link: %w", err)
		}
	}

	const updateQuery = `UPDATE student_requests SET status = 'accepted', updated_at = $2 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, requestID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark request accepted: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit accept: %w", err)
	}
	return nil
}

// Ignore marks a pending request ignored. Returns sql.ErrNoRows when the
// request is absent and ErrRequestResolved when it is no longer pending.
func (r *StudentRequestRepository) Ignore(ctx context.Context, requestID string) error {
	const query = `UPDATE student_requests SET status = 'ignored', updated_at = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, requestID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark request ignored: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark request ignored rows: %w", err)
	}
	if affected == 0 {
		if _, findErr := r.FindByID(ctx, requestID); findErr != nil {
			return findErr
		}
		return ErrRequestResolved
	}
	return nil
}
