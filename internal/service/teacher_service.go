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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	SetAvailability(ctx context.Context, id string, slots []string) error
	Delete(ctx context.Context, id string) error
	GetSettings(ctx context.Context, teacherID string) (*models.TeacherSettings, error)
	UpsertSettings(ctx context.Context, settings *models.TeacherSettings) error
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	Name         string   `json:"name" validate:"required"`
	Subject      string   `json:"subject" validate:"required"`
	Thumbnail    *string  `json:"thumbnail" validate:"omitempty,max=500"`
	Tags         []string `json:"tags"`
	Color        *string  `json:"color" validate:"omitempty,max=20"`
	Availability []string `json:"availability"`
}

// UpdateTeacherRequest represents payload for updating teachers.
type UpdateTeacherRequest struct {
	Name      string   `json:"name" validate:"required"`
	Subject   string   `json:"subject" validate:"required"`
	Thumbnail *string  `json:"thumbnail" validate:"omitempty,max=500"`
	Tags      []string `json:"tags"`
	Color     *string  `json:"color" validate:"omitempty,max=20"`
}

// SetAvailabilityRequest replaces a teacher's availability list wholesale.
type SetAvailabilityRequest struct {
	Availability []string `json:"availability" validate:"required"`
}

// UpdateSettingsRequest updates the durable teacher settings record.
type UpdateSettingsRequest struct {
	MeetingLink string `json:"meeting_link" validate:"omitempty,url"`
}

// TeacherService orchestrates teacher profile, availability and settings
// operations.
type TeacherService struct {
	repo               teacherRepository
	defaultMeetingLink string
	validator          *validator.Validate
	logger             *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, defaultMeetingLink string, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, defaultMeetingLink: defaultMeetingLink, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return teachers, pagination, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher profile.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		Name:         strings.TrimSpace(req.Name),
		Subject:      strings.TrimSpace(req.Subject),
		Thumbnail:    req.Thumbnail,
		Tags:         req.Tags,
		Color:        req.Color,
		Availability: dedupeSlots(req.Availability),
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies an existing teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher.Name = strings.TrimSpace(req.Name)
	teacher.Subject = strings.TrimSpace(req.Subject)
	teacher.Thumbnail = req.Thumbnail
	teacher.Tags = req.Tags
	teacher.Color = req.Color

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// SetAvailability replaces the availability list wholesale. Existing
// non-cancelled bookings on removed slots are left standing: the booking
// keeps its slot, and the slot simply cannot be booked again because it is
// no longer declared available.
func (s *TeacherService) SetAvailability(ctx context.Context, id string, req SetAvailabilityRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	slots := dedupeSlots(req.Availability)
	if err := s.repo.SetAvailability(ctx, id, slots); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set availability")
	}

	s.logger.Info("availability replaced", zap.String("teacher_id", id), zap.Int("slots", len(slots)))
	return s.Get(ctx, id)
}

// Delete removes a teacher profile.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}

// GetSettings returns the durable settings for a teacher, falling back to
// defaults when no row exists yet.
func (s *TeacherService) GetSettings(ctx context.Context, teacherID string) (*models.TeacherSettings, error) {
	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}

	settings, err := s.repo.GetSettings(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.TeacherSettings{TeacherID: teacherID, MeetingLink: s.defaultMeetingLink}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settings")
	}
	return settings, nil
}

// UpdateSettings writes the durable settings row for a teacher.
func (s *TeacherService) UpdateSettings(ctx context.Context, teacherID string, req UpdateSettingsRequest) (*models.TeacherSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}

	if _, err := s.Get(ctx, teacherID); err != nil {
		return nil, err
	}

	link := req.MeetingLink
	if link == "" {
		link = s.defaultMeetingLink
	}
	settings := &models.TeacherSettings{TeacherID: teacherID, MeetingLink: link}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update settings")
	}
	return settings, nil
}

func dedupeSlots(slots []string) []string {
	seen := make(map[string]struct{}, len(slots))
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		trimmed := strings.TrimSpace(slot)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
