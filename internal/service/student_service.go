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

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRegistrationNumber(ctx context.Context, regNo string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest represents payload for creating a student profile.
type CreateStudentRequest struct {
	Name               string `json:"name" validate:"required"`
	RegistrationNumber string `json:"registration_number" validate:"required"`
	ProfileImage       string `json:"profile_image" validate:"omitempty,max=500"`
	Grade              string `json:"grade" validate:"required"`
	Bio                string `json:"bio" validate:"omitempty,max=2000"`
}

// UpdateStudentRequest represents payload for updating a student profile.
// Grade and registration number are immutable and deliberately absent.
type UpdateStudentRequest struct {
	Name         string `json:"name" validate:"required"`
	ProfileImage string `json:"profile_image" validate:"omitempty,max=500"`
	Bio          string `json:"bio" validate:"omitempty,max=2000"`
}

// StudentService orchestrates student profile operations.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns all student profiles.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student profile.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	regNo := strings.TrimSpace(req.RegistrationNumber)
	if !registrationNumberPattern.MatchString(regNo) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "registration number must match grade-serial format")
	}

	taken, err := s.repo.ExistsByRegistrationNumber(ctx, regNo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check registration number")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "registration number already in use")
	}

	student := &models.Student{
		Name:               strings.TrimSpace(req.Name),
		RegistrationNumber: regNo,
		ProfileImage:       req.ProfileImage,
		Grade:              strings.TrimSpace(req.Grade),
		Bio:                req.Bio,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies the editable fields of a student profile. Grade and
// registration number never change after creation.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student.Name = strings.TrimSpace(req.Name)
	student.ProfileImage = req.ProfileImage
	student.Bio = req.Bio

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student profile.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}
