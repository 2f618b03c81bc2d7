package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockReminderStore struct{ mock.Mock }

func (m *mockReminderStore) Put(ctx context.Context, rem *domain.Reminder) error {
	return m.Called(ctx, rem).Error(0)
}
func (m *mockReminderStore) Get(ctx context.Context, reminderID string) (*domain.Reminder, error) {
	args := m.Called(ctx, reminderID)
	if r, _ := args.Get(0).(*domain.Reminder); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockReminderStore) Delete(ctx context.Context, reminderID string) error {
	return m.Called(ctx, reminderID).Error(0)
}
func (m *mockReminderStore) ListByUser(ctx context.Context, userID string) ([]domain.Reminder, error) {
	args := m.Called(ctx, userID)
	rs, _ := args.Get(0).([]domain.Reminder)
	return rs, args.Error(1)
}
func (m *mockReminderStore) ListEndedActive(ctx context.Context, day string) ([]domain.Reminder, error) {
	args := m.Called(ctx, day)
	rs, _ := args.Get(0).([]domain.Reminder)
	return rs, args.Error(1)
}
func (m *mockReminderStore) SetStatus(ctx context.Context, reminderID, status string) error {
	return m.Called(ctx, reminderID, status).Error(0)
}

type mockOccurrenceStore struct{ mock.Mock }

func (m *mockOccurrenceStore) PutMany(ctx context.Context, occs []domain.Occurrence) error {
	return m.Called(ctx, occs).Error(0)
}
func (m *mockOccurrenceStore) DeleteByReminder(ctx context.Context, reminderID string) ([]string, error) {
	args := m.Called(ctx, reminderID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockImageStore struct{ mock.Mock }

func (m *mockImageStore) UploadDataURI(ctx context.Context, keyPrefix, dataURI string) (string, error) {
	args := m.Called(ctx, keyPrefix, dataURI)
	return args.String(0), args.Error(1)
}

// --- builder ---

var fixedNow = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func newService(rs *mockReminderStore, os *mockOccurrenceStore, img *mockImageStore) *service {
	svc := NewService(ServiceDeps{ReminderRepo: rs, OccurrenceRepo: os, ImageStore: img}).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest() domain.ReminderRequest {
	return domain.ReminderRequest{
		Name:      "Vitamin D",
		StartDate: "2024-03-03",
		EndDate:   "2024-03-05",
		Times:     []string{"08:00", "20:00"},
		Days:      []string{"Mon", "Tue", "Wed"},
	}
}

// --- Create ---

func TestCreate_PersistsAndSchedules(t *testing.T) {
	rs := &mockReminderStore{}
	os := &mockOccurrenceStore{}
	var scheduled []domain.Occurrence
	rs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)
	os.On("PutMany", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { scheduled = args.Get(1).([]domain.Occurrence) }).Return(nil)

	rem, err := newService(rs, os, nil).Create(context.Background(), "u1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderActive, rem.Status)
	assert.Equal(t, "UTC", rem.Timezone)
	assert.Equal(t, "u1", rem.UserID)
	require.Len(t, scheduled, 4)
	for _, o := range scheduled {
		assert.Equal(t, rem.ReminderID, o.ReminderID)
		assert.Equal(t, "u1", o.UserID)
	}
}

func TestCreate_UploadsDataURIImage(t *testing.T) {
	rs := &mockReminderStore{}
	os := &mockOccurrenceStore{}
	img := &mockImageStore{}
	rs.On("Put", mock.Anything, mock.Anything).Return(nil)
	os.On("PutMany", mock.Anything, mock.Anything).Return(nil)
	img.On("UploadDataURI", mock.Anything, mock.MatchedBy(func(p string) bool { return len(p) > len("reminders/u1/") }), "data:image/png;base64,AAAA").
		Return("https://cdn.example/reminders/u1/x.png", nil)

	req := validRequest()
	req.Image = "data:image/png;base64,AAAA"
	rem, err := newService(rs, os, img).Create(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/reminders/u1/x.png", rem.Image)
}

func TestCreate_ScheduleFailureRemovesReminder(t *testing.T) {
	rs := &mockReminderStore{}
	os := &mockOccurrenceStore{}
	var putID string
	rs.On("Put", mock.Anything, mock.AnythingOfType("*domain.Reminder")).
		Run(func(args mock.Arguments) { putID = args.Get(1).(*domain.Reminder).ReminderID }).Return(nil)
	rs.On("Delete", mock.Anything, mock.Anything).Return(nil)
	os.On("PutMany", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	rem, err := newService(rs, os, nil).Create(context.Background(), "u1", validRequest())
	require.Error(t, err)
	assert.Nil(t, rem)
	rs.AssertCalled(t, "Delete", mock.Anything, putID)
}

func TestCreate_BadRangeSkipsImageUpload(t *testing.T) {
	img := &mockImageStore{}
	req := validRequest()
	req.Image = "data:image/png;base64,AAAA"
	req.EndDate = "2024-03-01"

	_, err := newService(&mockReminderStore{}, &mockOccurrenceStore{}, img).Create(context.Background(), "u1", req)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	img.AssertNotCalled(t, "UploadDataURI", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_ValidationErrors(t *testing.T) {
	rs := &mockReminderStore{}
	svc := newService(rs, &mockOccurrenceStore{}, nil)

	cases := map[string]func(r *domain.ReminderRequest){
		"missing name":  func(r *domain.ReminderRequest) { r.Name = "  " },
		"four times":    func(r *domain.ReminderRequest) { r.Times = []string{"01:00", "02:00", "03:00", "04:00"} },
		"bad clock":     func(r *domain.ReminderRequest) { r.Times = []string{"8am"} },
		"bad day":       func(r *domain.ReminderRequest) { r.Days = []string{"Someday"} },
		"bad timezone":  func(r *domain.ReminderRequest) { r.Timezone = "Nowhere/City" },
		"reversed":      func(r *domain.ReminderRequest) { r.EndDate = "2024-03-01" },
		"missing dates": func(r *domain.ReminderRequest) { r.StartDate = "" },
	}
	for name, mutate := range cases {
		req := validRequest()
		mutate(&req)
		_, err := svc.Create(context.Background(), "u1", req)
		assert.ErrorIs(t, err, domain.ErrBadRequest, name)
	}
	rs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Update / Delete ---

func TestUpdate_NotFound(t *testing.T) {
	rs := &mockReminderStore{}
	rs.On("Get", mock.Anything, "r1").Return(nil, domain.ErrNotFound)

	_, err := newService(rs, nil, nil).Update(context.Background(), "u1", "r1", validRequest())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_Forbidden(t *testing.T) {
	rs := &mockReminderStore{}
	rs.On("Get", mock.Anything, "r1").Return(&domain.Reminder{ReminderID: "r1", UserID: "someone-else"}, nil)

	_, err := newService(rs, nil, nil).Update(context.Background(), "u1", "r1", validRequest())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_CancelsAndReschedules(t *testing.T) {
	rs := &mockReminderStore{}
	os := &mockOccurrenceStore{}
	existing := &domain.Reminder{
		ReminderID: "r1", UserID: "u1", Name: "Old", Image: "https://img/old.png",
		StartDate: "2024-03-01", EndDate: "2024-03-10", Times: []string{"07:00"},
		Timezone: "UTC", Status: domain.ReminderActive, CreatedAt: fixedNow.Add(-time.Hour),
	}
	rs.On("Get", mock.Anything, "r1").Return(existing, nil)
	os.On("DeleteByReminder", mock.Anything, "r1").Return([]string{"r1#2024-03-01#0", "r1#2024-03-02#0"}, nil).Once()
	rs.On("Put", mock.Anything, mock.Anything).Return(nil)
	var scheduled []domain.Occurrence
	os.On("PutMany", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { scheduled = args.Get(1).([]domain.Occurrence) }).Return(nil)

	rem, err := newService(rs, os, nil).Update(context.Background(), "u1", "r1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Vitamin D", rem.Name)
	assert.Equal(t, "https://img/old.png", rem.Image)
	assert.Equal(t, fixedNow.Add(-time.Hour), rem.CreatedAt)
	assert.Len(t, scheduled, 4)
	os.AssertExpectations(t)
}

func TestDelete_CancelsOccurrencesThenDeletes(t *testing.T) {
	rs := &mockReminderStore{}
	os := &mockOccurrenceStore{}
	rs.On("Get", mock.Anything, "r1").Return(&domain.Reminder{ReminderID: "r1", UserID: "u1"}, nil)
	os.On("DeleteByReminder", mock.Anything, "r1").Return([]string{"r1#2024-03-04#0"}, nil)
	rs.On("Delete", mock.Anything, "r1").Return(nil)

	require.NoError(t, newService(rs, os, nil).Delete(context.Background(), "u1", "r1"))
	os.AssertExpectations(t)
	rs.AssertExpectations(t)
}

func TestDelete_CancelFailureKeepsReminder(t *testing.T) {
	rs := &mockReminderStore{}
	os := &mockOccurrenceStore{}
	rs.On("Get", mock.Anything, "r1").Return(&domain.Reminder{ReminderID: "r1", UserID: "u1"}, nil)
	os.On("DeleteByReminder", mock.Anything, "r1").Return(nil, errors.New("throttled"))

	err := newService(rs, os, nil).Delete(context.Background(), "u1", "r1")
	assert.Error(t, err)
	rs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_Forbidden(t *testing.T) {
	rs := &mockReminderStore{}
	rs.On("Get", mock.Anything, "r1").Return(&domain.Reminder{ReminderID: "r1", UserID: "u2"}, nil)

	err := newService(rs, nil, nil).Delete(context.Background(), "u1", "r1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// --- List / sweep ---

func TestList_PartitionsByEndDate(t *testing.T) {
	rs := &mockReminderStore{}
	rs.On("ListByUser", mock.Anything, "u1").Return([]domain.Reminder{
		{ReminderID: "past", EndDate: "2024-02-28", Timezone: "UTC", Status: domain.ReminderActive},
		{ReminderID: "today", EndDate: "2024-03-01", Timezone: "UTC", Status: domain.ReminderActive},
		{ReminderID: "done", EndDate: "2024-12-01", Timezone: "UTC", Status: domain.ReminderCompleted},
	}, nil)
	svc := newService(rs, nil, nil)

	active, err := svc.List(context.Background(), "u1", FilterActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "today", active[0].ReminderID)

	completed, err := svc.List(context.Background(), "u1", FilterCompleted)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	all, err := svc.List(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.List(context.Background(), "u1", "archived")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCompleteExpired(t *testing.T) {
	rs := &mockReminderStore{}
	rs.On("ListEndedActive", mock.Anything, "2024-03-02").Return([]domain.Reminder{
		{ReminderID: "ended", EndDate: "2024-02-29", Timezone: "UTC", Status: domain.ReminderActive},
		{ReminderID: "ends-today", EndDate: "2024-03-01", Timezone: "UTC", Status: domain.ReminderActive},
	}, nil)
	rs.On("SetStatus", mock.Anything, "ended", domain.ReminderCompleted).Return(nil)

	n, err := newService(rs, nil, nil).CompleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	rs.AssertNotCalled(t, "SetStatus", mock.Anything, "ends-today", mock.Anything)
}
