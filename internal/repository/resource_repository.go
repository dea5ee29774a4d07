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

// ResourceRepository manages persistence for course resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs a ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// List returns resources, optionally filtered by course.
func (r *ResourceRepository) List(ctx context.Context, courseID string) ([]models.Resource, error) {
	const query = `SELECT id, course_id, title, files, created_at, updated_at FROM resources WHERE ($1 = '' OR course_id = $1) ORDER BY created_at DESC`
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, courseID); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

// FindByID fetches a resource by ID.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	const query = `SELECT id, course_id, title, files, created_at, updated_at FROM resources WHERE id = $1`
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Create inserts a new resource record.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	resource.CreatedAt = now
	resource.UpdatedAt = now

	const query = `INSERT INTO resources (id, course_id, title, files, created_at, updated_at)
		VALUES (:id, :course_id, :title, :files, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// Delete removes a resource record.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resources WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete resource rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
