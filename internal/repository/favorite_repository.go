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

// ErrAlreadyFavorite reports a duplicate favorite pair.
var ErrAlreadyFavorite = errors.New("teacher already in favorites")

// FavoriteRepository manages the per-student favorite teacher list.
type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository constructs a FavoriteRepository.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

type favoriteTeacherRow struct {
	models.FavoriteTeacher
	TeacherName         string         `db:"t_name"`
	TeacherSubject      string         `db:"t_subject"`
	TeacherThumbnail    *string        `db:"t_thumbnail"`
	TeacherColor        *string        `db:"t_color"`
	TeacherTags         pq.StringArray `db:"t_tags"`
	TeacherAvailability pq.StringArray `db:"t_availability"`
}

// ListByStudent returns a student's favorites with teacher profiles resolved.
func (r *FavoriteRepository) ListByStudent(ctx context.Context, studentID string) ([]models.FavoriteTeacherView, error) {
	const query = `SELECT f.id, f.student_id, f.teacher_id, f.created_at,
			t.name AS t_name, t.subject AS t_subject, t.thumbnail AS t_thumbnail, t.color AS t_color, t.tags AS t_tags, t.availability AS t_availability
		FROM favorite_teachers f
		JOIN teachers t ON t.id = f.teacher_id
		WHERE f.student_id = $1
		ORDER BY f.created_at DESC`
	var rows []favoriteTeacherRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	out := make([]models.FavoriteTeacherView, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.FavoriteTeacherView{
			FavoriteTeacher: row.FavoriteTeacher,
			Teacher: models.Teacher{
				ID:           row.TeacherID,
				Name:         row.TeacherName,
				Subject:      row.TeacherSubject,
				Thumbnail:    row.TeacherThumbnail,
				Color:        row.TeacherColor,
				Tags:         row.TeacherTags,
				Availability: row.TeacherAvailability,
			},
		})
	}
	return out, nil
}

// Add inserts a favorite pair. Returns ErrAlreadyFavorite on duplicates.
func (r *FavoriteRepository) Add(ctx context.Context, favorite *models.FavoriteTeacher) error {
	if favorite.ID == "" {
		favorite.ID = uuid.NewString()
	}
	favorite.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO favorite_teachers (id, student_id, teacher_id, created_at) VALUES (:id, :student_id, :teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, favorite); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyFavorite
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite by ID.
func (r *FavoriteRepository) Remove(ctx context.Context, id string) error {
	const query = `DELETE FROM favorite_teachers WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove favorite rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
