package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorlink-app/tutorlink-api/internal/models"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
)

type mockTeacherRepo struct {
	items      map[string]*models.Teacher
	settings   map[string]*models.TeacherSettings
	listResult []models.Teacher
	listTotal  int
	listErr    error
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{
		items:    make(map[string]*models.Teacher),
		settings: make(map[string]*models.TeacherSettings),
	}
}

func (m *mockTeacherRepo) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if t, ok := m.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	now := time.Now()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) SetAvailability(ctx context.Context, id string, slots []string) error {
	t, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Availability = slots
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockTeacherRepo) GetSettings(ctx context.Context, teacherID string) (*models.TeacherSettings, error) {
	if s, ok := m.settings[teacherID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) UpsertSettings(ctx context.Context, settings *models.TeacherSettings) error {
	cp := *settings
	m.settings[settings.TeacherID] = &cp
	return nil
}

func newTeacherTestService(repo *mockTeacherRepo) *TeacherService {
	return NewTeacherService(repo, "https://meet.example.com/default", validator.New(), zap.NewNop())
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := newMockTeacherRepo()
	svc := newTeacherTestService(repo)

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		Name:         "Ms. Ray",
		Subject:      "Math",
		Availability: []string{"Mon 10:00", "Mon 10:00", " Tue 14:00 "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ms. Ray", teacher.Name)
	// Duplicates and padding collapse.
	assert.Equal(t, []string{"Mon 10:00", "Tue 14:00"}, []string(teacher.Availability))
}

func TestTeacherServiceCreateValidation(t *testing.T) {
	svc := newTeacherTestService(newMockTeacherRepo())

	_, err := svc.Create(context.Background(), CreateTeacherRequest{Name: "No Subject"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestTeacherServiceSetAvailabilityReplacesWholesale(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.items["t1"] = &models.Teacher{ID: "t1", Name: "Ms. Ray", Subject: "Math", Availability: []string{"Mon 10:00", "Tue 14:00"}}
	svc := newTeacherTestService(repo)

	teacher, err := svc.SetAvailability(context.Background(), "t1", SetAvailabilityRequest{Availability: []string{"Wed 09:00"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Wed 09:00"}, []string(teacher.Availability))
}

func TestTeacherServiceSetAvailabilityUnknownTeacher(t *testing.T) {
	svc := newTeacherTestService(newMockTeacherRepo())

	_, err := svc.SetAvailability(context.Background(), "missing", SetAvailabilityRequest{Availability: []string{"Mon 10:00"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestTeacherServiceSettingsDefault(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.items["t1"] = &models.Teacher{ID: "t1", Name: "Ms. Ray", Subject: "Math"}
	svc := newTeacherTestService(repo)

	settings, err := svc.GetSettings(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/default", settings.MeetingLink)
}

func TestTeacherServiceSettingsRoundTrip(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.items["t1"] = &models.Teacher{ID: "t1", Name: "Ms. Ray", Subject: "Math"}
	svc := newTeacherTestService(repo)

	updated, err := svc.UpdateSettings(context.Background(), "t1", UpdateSettingsRequest{MeetingLink: "https://meet.example.com/ray"})
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/ray", updated.MeetingLink)

	settings, err := svc.GetSettings(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/ray", settings.MeetingLink)
}

func TestTeacherServiceList(t *testing.T) {
	repo := newMockTeacherRepo()
	repo.listResult = []models.Teacher{{ID: "t1"}, {ID: "t2"}}
	repo.listTotal = 2
	svc := newTeacherTestService(repo)

	teachers, pagination, err := svc.List(context.Background(), models.TeacherFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	require.NotNil(t, pagination)
	assert.Equal(t, 2, pagination.TotalCount)
}
