package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

type resourceRepository interface {
	List(ctx context.Context, courseID string) ([]models.Resource, error)
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	Create(ctx context.Context, resource *models.Resource) error
	Delete(ctx context.Context, id string) error
}

type resourceCourseDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateResourceRequest represents payload for attaching material to a course.
type CreateResourceRequest struct {
	CourseID string               `json:"course_id" validate:"required"`
	Title    string               `json:"title" validate:"required"`
	Files    []CreateResourceFile `json:"files" validate:"dive"`
}

// CreateResourceFile describes one attachment in the request.
type CreateResourceFile struct {
	Type  string `json:"type" validate:"required,oneof=exercise exam pdf video"`
	Title string `json:"title" validate:"required"`
	URL   string `json:"url" validate:"required,url"`
}

// ResourceService orchestrates course material operations.
type ResourceService struct {
	repo      resourceRepository
	courses   resourceCourseDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResourceService constructs a ResourceService.
func NewResourceService(repo resourceRepository, courses resourceCourseDirectory, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns resources, optionally filtered by course.
func (s *ResourceService) List(ctx context.Context, courseID string) ([]models.Resource, error) {
	resources, err := s.repo.List(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return resources, nil
}

// Get returns a resource by id.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return resource, nil
}

// Create attaches new material to a course.
func (s *ResourceService) Create(ctx context.Context, req CreateResourceRequest) (*models.Resource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	files := make(models.ResourceFiles, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, models.ResourceFile{Type: f.Type, Title: f.Title, URL: f.URL})
	}

	resource := &models.Resource{
		CourseID: req.CourseID,
		Title:    strings.TrimSpace(req.Title),
		Files:    files,
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	return resource, nil
}

// Delete removes a resource.
func (s *ResourceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	return nil
}
