package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

const (
	courseListCacheKey     = "catalog:courses"
	courseCachePattern     = "catalog:courses*"
	catalogDefaultCacheTTL = 10 * time.Minute
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest represents payload for creating a course.
type CreateCourseRequest struct {
	Title        string     `json:"title" validate:"required"`
	Subject      string     `json:"subject" validate:"required"`
	Description  string     `json:"description" validate:"omitempty,max=5000"`
	InstructorID string     `json:"instructor_id" validate:"required"`
	Thumbnail    *string    `json:"thumbnail" validate:"omitempty,max=500"`
	Tags         []string   `json:"tags"`
	Color        *string    `json:"color" validate:"omitempty,max=20"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	NextLesson   *time.Time `json:"next_lesson"`
}

// CourseService orchestrates catalog course operations with read-through
// caching on the list endpoint.
type CourseService struct {
	repo      courseRepository
	teachers  teacherDirectory
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, teachers teacherDirectory, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, teachers: teachers, cache: cache, validator: validate, logger: logger}
}

// List returns the catalog, served from cache when possible.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if hit, err := s.cache.Get(ctx, courseListCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, courseListCacheKey, courses, catalogDefaultCacheTTL); err != nil {
		s.logger.Warn("failed to cache course list", zap.Error(err))
	}
	return courses, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course and invalidates the catalog cache.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if _, err := s.teachers.FindByID(ctx, req.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	course := &models.Course{
		Title:        strings.TrimSpace(req.Title),
		Subject:      strings.TrimSpace(req.Subject),
		Description:  req.Description,
		InstructorID: req.InstructorID,
		Thumbnail:    req.Thumbnail,
		Tags:         req.Tags,
		Color:        req.Color,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		NextLesson:   req.NextLesson,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	if err := s.cache.Invalidate(ctx, courseCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
	return course, nil
}

// Delete removes a course and invalidates the catalog cache.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	if err := s.cache.Invalidate(ctx, courseCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
	return nil
}
