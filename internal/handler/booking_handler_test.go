package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	"github.com/tutorlink-app/tutorlink-api/internal/repository"
	"github.com/tutorlink-app/tutorlink-api/internal/service"
	"github.com/tutorlink-app/tutorlink-api/pkg/response"
)

type bookingRepoStub struct {
	bookings map[string]*models.Booking
	taken    map[string]bool
}

func newBookingRepoStub() *bookingRepoStub {
	return &bookingRepoStub{bookings: map[string]*models.Booking{}, taken: map[string]bool{}}
}

func (s *bookingRepoStub) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *booking
	return &copied, nil
}

func (s *bookingRepoStub) CreateAdmitted(ctx context.Context, booking *models.Booking) error {
	key := booking.TeacherID + "/" + booking.SlotLabel
	if s.taken[key] {
		return repository.ErrSlotTaken
	}
	if booking.ID == "" {
		booking.ID = "b-" + booking.SlotLabel
	}
	s.taken[key] = true
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *bookingRepoStub) UpdateStatusFrom(ctx context.Context, id string, current, next models.BookingStatus) (bool, error) {
	booking, ok := s.bookings[id]
	if !ok || booking.Status != current {
		return false, nil
	}
	booking.Status = next
	return true, nil
}

func (s *bookingRepoStub) SetMeetingLink(ctx context.Context, id, link string) (bool, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return false, nil
	}
	booking.MeetingLink = &link
	return true, nil
}

func (s *bookingRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.bookings[id]; !ok {
		return false, nil
	}
	delete(s.bookings, id)
	return true, nil
}

func (s *bookingRepoStub) ListViewsByTeacher(ctx context.Context, teacherID string) ([]models.BookingView, error) {
	return nil, nil
}

func (s *bookingRepoStub) ListByStudent(ctx context.Context, studentID, studentName string) ([]models.Booking, error) {
	return nil, nil
}

type teacherDirectoryStub struct {
	teachers map[string]*models.Teacher
}

func (s *teacherDirectoryStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, ok := s.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

func newBookingHandlerFixture() (*BookingHandler, *bookingRepoStub) {
	gin.SetMode(gin.TestMode)
	repo := newBookingRepoStub()
	teachers := &teacherDirectoryStub{teachers: map[string]*models.Teacher{
		"t-1": {ID: "t-1", Name: "Kim Haneul", Availability: pq.StringArray{"Mon 10:00", "Tue 11:00"}},
	}}
	svc := service.NewBookingService(repo, teachers, nil, nil, nil)
	return NewBookingHandler(svc), repo
}

func postJSON(c *gin.Context, path string, payload interface{}) {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}

func TestBookingHandlerReserve(t *testing.T) {
	handler, _ := newBookingHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/bookings", service.ReserveRequest{
		TeacherID:   "t-1",
		StudentID:   "s-1",
		StudentName: "Mina Park",
		SlotLabel:   "Mon 10:00",
	})

	handler.Reserve(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
}

func TestBookingHandlerReserveInvalidBody(t *testing.T) {
	handler, _ := newBookingHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Reserve(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandlerReserveConflict(t *testing.T) {
	handler, _ := newBookingHandlerFixture()
	payload := service.ReserveRequest{
		TeacherID:   "t-1",
		StudentID:   "s-1",
		StudentName: "Mina Park",
		SlotLabel:   "Mon 10:00",
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/bookings", payload)
	handler.Reserve(c)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	payload.StudentID = "s-2"
	payload.StudentName = "Other Student"
	postJSON(c, "/bookings", payload)
	handler.Reserve(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandlerCancel(t *testing.T) {
	handler, repo := newBookingHandlerFixture()
	studentID := "s-1"
	repo.bookings["b-1"] = &models.Booking{
		ID: "b-1", TeacherID: "t-1", StudentID: &studentID,
		StudentName: "Mina Park", SlotLabel: "Mon 10:00", Status: models.BookingPending,
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/bookings/b-1/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.Cancel(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.BookingCancelled, repo.bookings["b-1"].Status)
}

func TestBookingHandlerSetStatusIllegalTransition(t *testing.T) {
	handler, repo := newBookingHandlerFixture()
	repo.bookings["b-1"] = &models.Booking{
		ID: "b-1", TeacherID: "t-1", StudentName: "Mina Park",
		SlotLabel: "Mon 10:00", Status: models.BookingPending,
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.SetStatusRequest{Status: models.BookingCompleted})
	req, _ := http.NewRequest(http.MethodPut, "/bookings/b-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.SetStatus(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
