package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
)

// TeacherStudentRepository manages roster links and the notes attached to
// them.
type TeacherStudentRepository struct {
	db *sqlx.DB
}

// NewTeacherStudentRepository constructs a TeacherStudentRepository.
func NewTeacherStudentRepository(db *sqlx.DB) *TeacherStudentRepository {
	return &TeacherStudentRepository{db: db}
}

// FindByID fetches a roster link by ID.
func (r *TeacherStudentRepository) FindByID(ctx context.Context, id string) (*models.TeacherStudent, error) {
	const query = `SELECT id, teacher_id, student_id, created_at FROM teacher_students WHERE id = $1`
	var link models.TeacherStudent
	if err := r.db.GetContext(ctx, &link, query, id); err != nil {
		return nil, err
	}
	return &link, nil
}

// ListByTeacher returns a teacher's roster links.
func (r *TeacherStudentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherStudent, error) {
	const query = `SELECT id, teacher_id, student_id, created_at FROM teacher_students WHERE teacher_id = $1 ORDER BY created_at ASC`
	var links []models.TeacherStudent
	if err := r.db.SelectContext(ctx, &links, query, teacherID); err != nil {
		return nil, fmt.Errorf("list roster links: %w", err)
	}
	return links, nil
}

// CountByTeacher returns the number of active links for a teacher.
func (r *TeacherStudentRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM teacher_students WHERE teacher_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count roster links: %w", err)
	}
	return count, nil
}

// Remove deletes a roster link.
func (r *TeacherStudentRepository) Remove(ctx context.Context, id string) error {
	const query = `DELETE FROM teacher_students WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("remove roster link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove roster link rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddNote appends a dated note to a roster link.
func (r *TeacherStudentRepository) AddNote(ctx context.Context, note *models.StudentNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.NotedAt.IsZero() {
		note.NotedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_notes (id, link_id, content, noted_at) VALUES (:id, :link_id, :content, :noted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("add student note: %w", err)
	}
	return nil
}

// ListNotes returns the notes for a roster link, oldest first.
func (r *TeacherStudentRepository) ListNotes(ctx context.Context, linkID string) ([]models.StudentNote, error) {
	const query = `SELECT id, link_id, content, noted_at FROM student_notes WHERE link_id = $1 ORDER BY noted_at ASC`
	var notes []models.StudentNote
	if err := r.db.SelectContext(ctx, &notes, query, linkID); err != nil {
		return nil, fmt.Errorf("list student notes: %w", err)
	}
	return notes, nil
}
