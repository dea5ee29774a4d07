package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	"github.com/tutorlink-app/tutorlink-api/internal/repository"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

type favoriteRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.FavoriteTeacherView, error)
	Add(ctx context.Context, favorite *models.FavoriteTeacher) error
	Remove(ctx context.Context, id string) error
}

// AddFavoriteRequest marks a teacher as a student favorite.
type AddFavoriteRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// FavoriteService manages per-student favorite teacher lists.
type FavoriteService struct {
	repo      favoriteRepository
	teachers  teacherDirectory
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFavoriteService constructs a FavoriteService.
func NewFavoriteService(repo favoriteRepository, teachers teacherDirectory, validate *validator.Validate, logger *zap.Logger) *FavoriteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FavoriteService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// List returns the student's favorites with resolved teacher profiles.
func (s *FavoriteService) List(ctx context.Context, studentID string) ([]models.FavoriteTeacherView, error) {
	favorites, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list favorites")
	}
	return favorites, nil
}

// Add marks the teacher as a favorite. Adding the same teacher twice is a
// conflict.
func (s *FavoriteService) Add(ctx context.Context, req AddFavoriteRequest) (*models.FavoriteTeacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid favorite payload")
	}

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	favorite := &models.FavoriteTeacher{StudentID: req.StudentID, TeacherID: req.TeacherID}
	if err := s.repo.Add(ctx, favorite); err != nil {
		if errors.Is(err, repository.ErrAlreadyFavorite) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already in favorites")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add favorite")
	}
	return favorite, nil
}

// Remove deletes a favorite entry.
func (s *FavoriteService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Remove(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "favorite not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove favorite")
	}
	return nil
}
