package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	"github.com/tutorlink-app/tutorlink-api/internal/repository"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

type mockBookingRepo struct {
	mu      sync.Mutex
	items   map[string]*models.Booking
	nextID  int
	findErr error
}

func newMockBookingRepo() *mockBookingRepo {
	return &mockBookingRepo{items: make(map[string]*models.Booking)}
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if b, ok := m.items[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) CreateAdmitted(ctx context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.TeacherID == booking.TeacherID && existing.SlotLabel == booking.SlotLabel && existing.Status != models.BookingCancelled {
			return repository.ErrSlotTaken
		}
	}
	m.nextID++
	booking.ID = "b" + string(rune('0'+m.nextID))
	cp := *booking
	m.items[booking.ID] = &cp
	return nil
}

func (m *mockBookingRepo) UpdateStatusFrom(ctx context.Context, id string, current, next models.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok || b.Status != current {
		return false, nil
	}
	b.Status = next
	return true, nil
}

func (m *mockBookingRepo) SetMeetingLink(ctx context.Context, id, link string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[id]
	if !ok {
		return false, nil
	}
	b.MeetingLink = &link
	return true, nil
}

func (m *mockBookingRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *mockBookingRepo) ListViewsByTeacher(ctx context.Context, teacherID string) ([]models.BookingView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var views []models.BookingView
	for _, b := range m.items {
		if b.TeacherID == teacherID {
			views = append(views, models.BookingView{Booking: *b, Student: models.NamedStudent(b.StudentName)})
		}
	}
	return views, nil
}

func (m *mockBookingRepo) ListByStudent(ctx context.Context, studentID, studentName string) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.items {
		if (b.StudentID != nil && *b.StudentID == studentID) || b.StudentName == studentName {
			out = append(out, *b)
		}
	}
	return out, nil
}

type mockTeacherDirectory struct {
	teachers map[string]*models.Teacher
}

func (m *mockTeacherDirectory) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func newBookingService(repo *mockBookingRepo, teachers map[string]*models.Teacher) *BookingService {
	return NewBookingService(repo, &mockTeacherDirectory{teachers: teachers}, nil, validator.New(), zap.NewNop())
}

func msRay() map[string]*models.Teacher {
	return map[string]*models.Teacher{
		"t-ray": {ID: "t-ray", Name: "Ms. Ray", Subject: "Math", Availability: []string{"Mon 10:00", "Tue 14:00"}},
	}
}

func TestReserveAdmitsPendingBooking(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID:   "t-ray",
		StudentID:   "s1",
		StudentName: "Maya",
		SlotLabel:   "Mon 10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, "Mon 10:00", booking.SlotLabel)
	assert.NotEmpty(t, booking.ID)
}

func TestReserveMissingFields(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), msRay())

	_, err := svc.Reserve(context.Background(), ReserveRequest{TeacherID: "t-ray"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReserveUnknownTeacher(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), msRay())

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID:   "t-ghost",
		StudentID:   "s1",
		StudentName: "Maya",
		SlotLabel:   "Mon 10:00",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReserveSlotNotInAvailability(t *testing.T) {
	svc := newBookingService(newMockBookingRepo(), msRay())

	_, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID:   "t-ray",
		StudentID:   "s1",
		StudentName: "Maya",
		SlotLabel:   "Wed 09:00",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
}

func TestReserveSameSlotTwiceConflicts(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	first := ReserveRequest{TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00"}
	_, err := svc.Reserve(context.Background(), first)
	require.NoError(t, err)

	second := ReserveRequest{TeacherID: "t-ray", StudentID: "s2", StudentName: "Noah", SlotLabel: "Mon 10:00"}
	_, err = svc.Reserve(context.Background(), second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotConflict))
}

func TestReserveSlotFreedByCancellation(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), booking.ID))

	// The cancelled row no longer holds the slot.
	rebooked, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s2", StudentName: "Noah", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)
	assert.NotEqual(t, booking.ID, rebooked.ID)
}

func TestReserveConcurrentExactlyOneWinner(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), ReserveRequest{
				TeacherID:   "t-ray",
				StudentID:   "s1",
				StudentName: "Maya",
				SlotLabel:   "Tue 14:00",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var admitted, conflicts int
	for err := range results {
		if err == nil {
			admitted++
		} else if errors.Is(err, appErrors.ErrSlotConflict) {
			conflicts++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCancelIsIdempotent(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), booking.ID))
	require.NoError(t, svc.Cancel(context.Background(), booking.ID))
	require.NoError(t, svc.Cancel(context.Background(), "missing-id"))
}

func TestCancelCompletedBookingRejected(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00", Status: models.BookingConfirmed,
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), booking.ID, SetStatusRequest{Status: models.BookingCompleted})
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), booking.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
}

func TestSetStatusFollowsTransitionTable(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)

	// pending -> completed is not allowed.
	_, err = svc.SetStatus(context.Background(), booking.ID, SetStatusRequest{Status: models.BookingCompleted})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTransition))

	// pending -> confirmed -> completed is.
	_, err = svc.SetStatus(context.Background(), booking.ID, SetStatusRequest{Status: models.BookingConfirmed})
	require.NoError(t, err)
	updated, err := svc.SetStatus(context.Background(), booking.ID, SetStatusRequest{Status: models.BookingCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)

	// Completed is terminal.
	_, err = svc.SetStatus(context.Background(), booking.ID, SetStatusRequest{Status: models.BookingPending})
	require.Error(t, err)
}

func TestSetStatusSameStatusNoOp(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)

	same, err := svc.SetStatus(context.Background(), booking.ID, SetStatusRequest{Status: models.BookingPending})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, same.Status)
}

func TestAttachMeetingLink(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)

	updated, err := svc.AttachMeetingLink(context.Background(), booking.ID, AttachMeetingLinkRequest{MeetingLink: "https://meet.example.com/ray"})
	require.NoError(t, err)
	require.NotNil(t, updated.MeetingLink)
	assert.Equal(t, "https://meet.example.com/ray", *updated.MeetingLink)

	_, err = svc.AttachMeetingLink(context.Background(), booking.ID, AttachMeetingLinkRequest{MeetingLink: "not-a-url"})
	require.Error(t, err)
}

func TestDeleteBooking(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newBookingService(repo, msRay())

	booking, err := svc.Reserve(context.Background(), ReserveRequest{
		TeacherID: "t-ray", StudentID: "s1", StudentName: "Maya", SlotLabel: "Mon 10:00",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), booking.ID))
	err = svc.Delete(context.Background(), booking.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
