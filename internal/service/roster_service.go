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

type studentRequestRepository interface {
	Create(ctx context.Context, request *models.StudentRequest) error
	FindByID(ctx context.Context, id string) (*models.StudentRequest, error)
	ListPendingByTeacher(ctx context.Context, teacherID string) ([]models.PendingRequest, error)
	Accept(ctx context.Context, requestID string, maxStudents int) error
	Ignore(ctx context.Context, requestID string) error
}

type rosterLinkRepository interface {
	FindByID(ctx context.Context, id string) (*models.TeacherStudent, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherStudent, error)
	Remove(ctx context.Context, id string) error
	AddNote(ctx context.Context, note *models.StudentNote) error
	ListNotes(ctx context.Context, linkID string) ([]models.StudentNote, error)
}

type rosterStudentDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type bookingHistoryRepository interface {
	HistoryForLink(ctx context.Context, teacherID, studentID, studentName string) ([]models.Booking, error)
}

// CreateRequestRequest is a student's petition to join a teacher's roster.
type CreateRequestRequest struct {
	TeacherID      string `json:"teacher_id" validate:"required"`
	StudentID      string `json:"student_id" validate:"required"`
	RequestMessage string `json:"request_message" validate:"omitempty,max=500"`
}

// AddNoteRequest appends a note to a roster link.
type AddNoteRequest struct {
	Content string `json:"content" validate:"required"`
}

// RosterService manages student requests and the capped teacher roster.
type RosterService struct {
	requests    studentRequestRepository
	links       rosterLinkRepository
	students    rosterStudentDirectory
	bookings    bookingHistoryRepository
	maxStudents int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(requests studentRequestRepository, links rosterLinkRepository, students rosterStudentDirectory, bookings bookingHistoryRepository, maxStudents int, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if maxStudents <= 0 {
		maxStudents = 5
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		requests:    requests,
		links:       links,
		students:    students,
		bookings:    bookings,
		maxStudents: maxStudents,
		validator:   validate,
		logger:      logger,
	}
}

// CreateRequest files a new pending student request.
func (s *RosterService) CreateRequest(ctx context.Context, req CreateRequestRequest) (*models.StudentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	request := &models.StudentRequest{
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		Status:    models.RequestPending,
	}
	if msg := strings.TrimSpace(req.RequestMessage); msg != "" {
		request.RequestMessage = &msg
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	return request, nil
}

// ListPending returns a teacher's pending requests.
func (s *RosterService) ListPending(ctx context.Context, teacherID string) ([]models.PendingRequest, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id required")
	}
	pending, err := s.requests.ListPendingByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return pending, nil
}

// Accept resolves a pending request into an active roster link. The cap
// check and the link insert are one atomic decision at the store; when the
// roster is full the request stays pending.
func (s *RosterService) Accept(ctx context.Context, requestID string) error {
	if err := s.requests.Accept(ctx, requestID, s.maxStudents); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		case errors.Is(err, repository.ErrRosterFull):
			s.logger.Info("accept rejected, roster full", zap.String("request_id", requestID), zap.Int("max_students", s.maxStudents))
			return appErrors.Clone(appErrors.ErrCapacityExceeded, "maximum number of students reached")
		case errors.Is(err, repository.ErrRequestResolved):
			return appErrors.Clone(appErrors.ErrConflict, "request already resolved")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept request")
	}

	s.logger.Info("request accepted", zap.String("request_id", requestID))
	return nil
}

// Ignore marks a pending request ignored.
func (s *RosterService) Ignore(ctx context.Context, requestID string) error {
	if err := s.requests.Ignore(ctx, requestID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		case errors.Is(err, repository.ErrRequestResolved):
			return appErrors.Clone(appErrors.ErrConflict, "request already resolved")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to ignore request")
	}
	return nil
}

// ListStudents returns a teacher's roster with student profiles, notes and
// booking history resolved.
func (s *RosterService) ListStudents(ctx context.Context, teacherID string) ([]models.RosterEntry, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id required")
	}

	links, err := s.links.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}

	entries := make([]models.RosterEntry, 0, len(links))
	for _, link := range links {
		entry := models.RosterEntry{TeacherStudent: link}

		student, err := s.students.FindByID(ctx, link.StudentID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
			}
			s.logger.Warn("roster link references missing student", zap.String("link_id", link.ID), zap.String("student_id", link.StudentID))
		} else {
			entry.Student = *student
		}

		notes, err := s.links.ListNotes(ctx, link.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notes")
		}
		entry.Notes = notes

		history, err := s.bookings.HistoryForLink(ctx, teacherID, link.StudentID, entry.Student.Name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking history")
		}
		entry.History = history

		entries = append(entries, entry)
	}
	return entries, nil
}

// AddNote appends a dated note to a roster link.
func (s *RosterService) AddNote(ctx context.Context, linkID string, req AddNoteRequest) (*models.StudentNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "empty note")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty note")
	}

	if _, err := s.links.FindByID(ctx, linkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student link not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student link")
	}

	note := &models.StudentNote{LinkID: linkID, Content: content}
	if err := s.links.AddNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add note")
	}
	return note, nil
}

// RemoveStudent deletes a roster link, freeing capacity for new accepts.
func (s *RosterService) RemoveStudent(ctx context.Context, linkID string) error {
	if err := s.links.Remove(ctx, linkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student link not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student link")
	}
	return nil
}
