package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// mockRequestStore mimics the transactional accept: the cap check and link
// insert happen under one lock, and a full roster leaves the request pending.
type mockRequestStore struct {
	mu       sync.Mutex
	requests map[string]*models.StudentRequest
	links    map[string]*models.TeacherStudent
	notes    map[string][]models.StudentNote
	nextLink int
}

func newMockRequestStore() *mockRequestStore {
	return &mockRequestStore{
		requests: make(map[string]*models.StudentRequest),
		links:    make(map[string]*models.TeacherStudent),
		notes:    make(map[string][]models.StudentNote),
	}
}

func (m *mockRequestStore) Create(ctx context.Context, request *models.StudentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if request.ID == "" {
		request.ID = fmt.Sprintf("req%d", len(m.requests)+1)
	}
	cp := *request
	m.requests[request.ID] = &cp
	return nil
}

func (m *mockRequestStore) FindByID(ctx context.Context, id string) (*models.StudentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestStore) ListPendingByTeacher(ctx context.Context, teacherID string) ([]models.PendingRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PendingRequest
	for _, r := range m.requests {
		if r.TeacherID == teacherID && r.Status == models.RequestPending {
			out = append(out, models.PendingRequest{StudentRequest: *r})
		}
	}
	return out, nil
}

func (m *mockRequestStore) Accept(ctx context.Context, requestID string, maxStudents int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[requestID]
	if !ok {
		return sql.ErrNoRows
	}
	if request.Status != models.RequestPending {
		return repository.ErrRequestResolved
	}

	linked := 0
	alreadyLinked := false
	for _, link := range m.links {
		if link.TeacherID == request.TeacherID {
			linked++
			if link.StudentID == request.StudentID {
				alreadyLinked = true
			}
		}
	}
	if !alreadyLinked {
		if linked >= maxStudents {
			return repository.ErrRosterFull
		}
		m.nextLink++
		id := fmt.Sprintf("link%d", m.nextLink)
		m.links[id] = &models.TeacherStudent{ID: id, TeacherID: request.TeacherID, StudentID: request.StudentID}
	}
	request.Status = models.RequestAccepted
	return nil
}

func (m *mockRequestStore) Ignore(ctx context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[requestID]
	if !ok {
		return sql.ErrNoRows
	}
	if request.Status != models.RequestPending {
		return repository.ErrRequestResolved
	}
	request.Status = models.RequestIgnored
	return nil
}

func (m *mockRequestStore) FindLinkByID(ctx context.Context, id string) (*models.TeacherStudent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.links[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestStore) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherStudent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TeacherStudent
	for _, l := range m.links {
		if l.TeacherID == teacherID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockRequestStore) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.links, id)
	return nil
}

func (m *mockRequestStore) AddNote(ctx context.Context, note *models.StudentNote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	note.ID = fmt.Sprintf("note%d", len(m.notes[note.LinkID])+1)
	m.notes[note.LinkID] = append(m.notes[note.LinkID], *note)
	return nil
}

func (m *mockRequestStore) ListNotes(ctx context.Context, linkID string) ([]models.StudentNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notes[linkID], nil
}

// linkStoreAdapter exposes the link methods under the rosterLinkRepository
// method set.
type linkStoreAdapter struct{ store *mockRequestStore }

func (a linkStoreAdapter) FindByID(ctx context.Context, id string) (*models.TeacherStudent, error) {
	return a.store.FindLinkByID(ctx, id)
}

func (a linkStoreAdapter) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherStudent, error) {
	return a.store.ListByTeacher(ctx, teacherID)
}

func (a linkStoreAdapter) Remove(ctx context.Context, id string) error {
	return a.store.Remove(ctx, id)
}

func (a linkStoreAdapter) AddNote(ctx context.Context, note *models.StudentNote) error {
	return a.store.AddNote(ctx, note)
}

func (a linkStoreAdapter) ListNotes(ctx context.Context, linkID string) ([]models.StudentNote, error) {
	return a.store.ListNotes(ctx, linkID)
}

type mockStudentDirectory struct {
	students map[string]*models.Student
}

func (m *mockStudentDirectory) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockHistoryRepo struct{}

func (m *mockHistoryRepo) HistoryForLink(ctx context.Context, teacherID, studentID, studentName string) ([]models.Booking, error) {
	return nil, nil
}

func newRosterService(store *mockRequestStore, students map[string]*models.Student, maxStudents int) *RosterService {
	if students == nil {
		students = map[string]*models.Student{}
	}
	return NewRosterService(store, linkStoreAdapter{store}, &mockStudentDirectory{students: students}, &mockHistoryRepo{}, maxStudents, validator.New(), zap.NewNop())
}

func seedRequest(t *testing.T, svc *RosterService, teacherID, studentID string) *models.StudentRequest {
	t.Helper()
	request, err := svc.CreateRequest(context.Background(), CreateRequestRequest{TeacherID: teacherID, StudentID: studentID})
	require.NoError(t, err)
	return request
}

func TestAcceptLinksStudent(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	request := seedRequest(t, svc, "t1", "s1")
	require.NoError(t, svc.Accept(context.Background(), request.ID))

	links, err := store.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	resolved, err := store.FindByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, resolved.Status)
}

func TestAcceptRosterFullLeavesRequestPending(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	for i := 1; i <= 5; i++ {
		request := seedRequest(t, svc, "t1", fmt.Sprintf("s%d", i))
		require.NoError(t, svc.Accept(context.Background(), request.ID))
	}

	sixth := seedRequest(t, svc, "t1", "s6")
	err := svc.Accept(context.Background(), sixth.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCapacityExceeded))

	// The rejected request stays pending and can be accepted later.
	resolved, findErr := store.FindByID(context.Background(), sixth.ID)
	require.NoError(t, findErr)
	assert.Equal(t, models.RequestPending, resolved.Status)

	links, err := store.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, links, 5)
}

func TestAcceptAfterRemovalFreesCapacity(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	for i := 1; i <= 5; i++ {
		request := seedRequest(t, svc, "t1", fmt.Sprintf("s%d", i))
		require.NoError(t, svc.Accept(context.Background(), request.ID))
	}

	links, err := store.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.NoError(t, svc.RemoveStudent(context.Background(), links[0].ID))

	sixth := seedRequest(t, svc, "t1", "s6")
	require.NoError(t, svc.Accept(context.Background(), sixth.ID))
}

func TestAcceptConcurrentNeverOvershootsCap(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	const candidates = 12
	ids := make([]string, 0, candidates)
	for i := 1; i <= candidates; i++ {
		request := seedRequest(t, svc, "t1", fmt.Sprintf("s%d", i))
		ids = append(ids, request.ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, candidates)
	for _, id := range ids {
		wg.Add(1)
		go func(requestID string) {
			defer wg.Done()
			results <- svc.Accept(context.Background(), requestID)
		}(id)
	}
	wg.Wait()
	close(results)

	var accepted, rejected int
	for err := range results {
		if err == nil {
			accepted++
		} else if errors.Is(err, appErrors.ErrCapacityExceeded) {
			rejected++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, accepted)
	assert.Equal(t, candidates-5, rejected)

	links, err := store.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, links, 5)
}

func TestAcceptResolvedRequestConflicts(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	request := seedRequest(t, svc, "t1", "s1")
	require.NoError(t, svc.Accept(context.Background(), request.ID))

	err := svc.Accept(context.Background(), request.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestAcceptUnknownRequest(t *testing.T) {
	svc := newRosterService(newMockRequestStore(), nil, 5)

	err := svc.Accept(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestIgnoreRequest(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	request := seedRequest(t, svc, "t1", "s1")
	require.NoError(t, svc.Ignore(context.Background(), request.ID))

	err := svc.Ignore(context.Background(), request.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestListStudentsResolvesProfilesAndNotes(t *testing.T) {
	store := newMockRequestStore()
	students := map[string]*models.Student{
		"s1": {ID: "s1", Name: "Maya", Grade: "3"},
	}
	svc := newRosterService(store, students, 5)

	request := seedRequest(t, svc, "t1", "s1")
	require.NoError(t, svc.Accept(context.Background(), request.ID))

	links, err := store.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	_, err = svc.AddNote(context.Background(), links[0].ID, AddNoteRequest{Content: "strong on fractions"})
	require.NoError(t, err)

	entries, err := svc.ListStudents(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Maya", entries[0].Student.Name)
	require.Len(t, entries[0].Notes, 1)
	assert.Equal(t, "strong on fractions", entries[0].Notes[0].Content)
}

func TestListStudentsToleratesMissingProfile(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	request := seedRequest(t, svc, "t1", "s-gone")
	require.NoError(t, svc.Accept(context.Background(), request.ID))

	entries, err := svc.ListStudents(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Student.ID)
}

func TestAddNoteValidation(t *testing.T) {
	store := newMockRequestStore()
	svc := newRosterService(store, nil, 5)

	request := seedRequest(t, svc, "t1", "s1")
	require.NoError(t, svc.Accept(context.Background(), request.ID))
	links, err := store.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)

	_, err = svc.AddNote(context.Background(), links[0].ID, AddNoteRequest{Content: "   "})
	require.Error(t, err)

	_, err = svc.AddNote(context.Background(), "missing-link", AddNoteRequest{Content: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
