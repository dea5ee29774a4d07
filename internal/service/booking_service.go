package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	"github.com/tutorlink-app/tutorlink-api/internal/repository"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	CreateAdmitted(ctx context.Context, booking *models.Booking) error
	UpdateStatusFrom(ctx context.Context, id string, current, next models.BookingStatus) (bool, error)
	SetMeetingLink(ctx context.Context, id, link string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListViewsByTeacher(ctx context.Context, teacherID string) ([]models.BookingView, error)
	ListByStudent(ctx context.Context, studentID, studentName string) ([]models.Booking, error)
}

type teacherDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// ReserveRequest is a student's reservation request for one teacher slot.
type ReserveRequest struct {
	TeacherID   string `json:"teacher_id" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name" validate:"required"`
	SlotLabel   string `json:"slot_label" validate:"required"`
	// Status lets trusted callers admit directly into confirmed.
	Status models.BookingStatus `json:"status" validate:"omitempty,oneof=pending confirmed"`
}

// SetStatusRequest transitions a booking's lifecycle state.
type SetStatusRequest struct {
	Status models.BookingStatus `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
}

// AttachMeetingLinkRequest attaches a meeting link to a booking.
type AttachMeetingLinkRequest struct {
	MeetingLink string `json:"meeting_link" validate:"required,url"`
}

// BookingService is the booking admission service: it decides atomically
// whether a reservation may be created and owns the booking lifecycle.
// It never caches booking state; the store is the single source of truth.
type BookingService struct {
	bookings  bookingRepository
	teachers  teacherDirectory
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs a BookingService.
func NewBookingService(bookings bookingRepository, teachers teacherDirectory, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{bookings: bookings, teachers: teachers, metrics: metrics, validator: validate, logger: logger}
}

func (s *BookingService) observeAdmission(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveAdmission(outcome)
	}
}

// Reserve applies the admission checks in order: input validation, teacher
// lookup, availability, then the conflict check and insert as one atomic
// decision at the store.
func (s *BookingService) Reserve(ctx context.Context, req ReserveRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		s.observeAdmission("validation_failed")
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required booking fields")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observeAdmission("teacher_not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	if !teacher.HasSlot(req.SlotLabel) {
		s.observeAdmission("slot_unavailable")
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot not available")
	}

	status := req.Status
	if status == "" {
		status = models.BookingPending
	}

	studentID := strings.TrimSpace(req.StudentID)
	booking := &models.Booking{
		TeacherID:   req.TeacherID,
		StudentID:   &studentID,
		StudentName: strings.TrimSpace(req.StudentName),
		SlotLabel:   req.SlotLabel,
		Status:      status,
	}

	if err := s.bookings.CreateAdmitted(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			s.observeAdmission("slot_conflict")
			return nil, appErrors.Clone(appErrors.ErrSlotConflict, "slot already booked")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.observeAdmission("admitted")
	s.logger.Info("booking admitted",
		zap.String("booking_id", booking.ID),
		zap.String("teacher_id", booking.TeacherID),
		zap.String("slot_label", booking.SlotLabel),
		zap.String("status", string(booking.Status)),
	)
	return booking, nil
}

// Cancel marks a booking cancelled. Cancelling an absent or already
// cancelled booking succeeds so retries stay safe; the miss is still logged.
// A completed booking cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, id string) error {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("cancel of absent booking", zap.String("booking_id", id))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if booking.Status == models.BookingCancelled {
		return nil
	}
	if !booking.Status.CanTransitionTo(models.BookingCancelled) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "booking can no longer be cancelled")
	}

	ok, err := s.bookings.UpdateStatusFrom(ctx, id, booking.Status, models.BookingCancelled)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	if !ok {
		// Lost a race with another transition; re-check the final state.
		current, findErr := s.bookings.FindByID(ctx, id)
		if findErr == nil && current.Status == models.BookingCancelled {
			return nil
		}
		return appErrors.Clone(appErrors.ErrInvalidTransition, "booking status changed concurrently")
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", id), zap.String("slot_label", booking.SlotLabel))
	return nil
}

// Delete removes a booking outright.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	ok, err := s.bookings.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	return nil
}

// SetStatus transitions a booking through the explicit lifecycle table.
func (s *BookingService) SetStatus(ctx context.Context, id string, req SetStatusRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if booking.Status == req.Status {
		return booking, nil
	}
	if !booking.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move booking from "+string(booking.Status)+" to "+string(req.Status))
	}

	ok, err := s.bookings.UpdateStatusFrom(ctx, id, booking.Status, req.Status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking status")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "booking status changed concurrently")
	}

	booking.Status = req.Status
	s.logger.Info("booking status updated", zap.String("booking_id", id), zap.String("status", string(req.Status)))
	return booking, nil
}

// AttachMeetingLink sets the meeting link on a booking.
func (s *BookingService) AttachMeetingLink(ctx context.Context, id string, req AttachMeetingLinkRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "meeting link required")
	}

	ok, err := s.bookings.SetMeetingLink(ctx, id, req.MeetingLink)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach meeting link")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}

	return s.Get(ctx, id)
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// ListForTeacher returns a teacher's bookings with student references
// resolved.
func (s *BookingService) ListForTeacher(ctx context.Context, teacherID string) ([]models.BookingView, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id required")
	}
	views, err := s.bookings.ListViewsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return views, nil
}

// ListForStudent returns bookings matched by linked student id or name
// fallback.
func (s *BookingService) ListForStudent(ctx context.Context, studentID, studentName string) ([]models.Booking, error) {
	if studentID == "" && studentName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id or name required")
	}
	bookings, err := s.bookings.ListByStudent(ctx, studentID, studentName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}
