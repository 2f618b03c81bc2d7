package health

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEntryStore struct{ mock.Mock }

func (m *mockEntryStore) Put(ctx context.Context, e *domain.HealthEntry) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockEntryStore) ListRecent(ctx context.Context, userID string, kind domain.MetricKind, limit int32) ([]domain.HealthEntry, error) {
	args := m.Called(ctx, userID, kind, limit)
	entries, _ := args.Get(0).([]domain.HealthEntry)
	return entries, args.Error(1)
}

// memStore mirrors the table's key order: partition user_kind, sort entry_key descending.
type memStore struct {
	mu    sync.Mutex
	items map[string][]domain.HealthEntry
}

func (m *memStore) Put(_ context.Context, e *domain.HealthEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.UserKind] = append(m.items[e.UserKind], *e)
	return nil
}

func (m *memStore) ListRecent(_ context.Context, userID string, kind domain.MetricKind, limit int32) ([]domain.HealthEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append([]domain.HealthEntry(nil), m.items[domain.HealthEntryKey(userID, kind)]...)
	sort.Slice(all, func(i, j int) bool { return strings.Compare(all[i].EntryKey, all[j].EntryKey) > 0 })
	if int(limit) < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func day(s string) time.Time {
	t, _ := time.Parse(domain.DateLayout, s)
	return t
}

func TestSave_UnknownShapeRejected(t *testing.T) {
	svc := NewService(ServiceDeps{MetricRepo: &mockEntryStore{}})

	_, err := svc.Save(context.Background(), "u1", domain.MetricWeight, day("2024-03-01"), &domain.SleepMetric{HoursSlept: 7})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Save(context.Background(), "u1", domain.MetricWeight, day("2024-03-01"), nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSave_MissingDate(t *testing.T) {
	svc := NewService(ServiceDeps{MetricRepo: &mockEntryStore{}})
	_, err := svc.Save(context.Background(), "u1", domain.MetricWeight, time.Time{}, &domain.WeightMetric{Weight: 60})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSave_InvalidPayload(t *testing.T) {
	store := &mockEntryStore{}
	svc := NewService(ServiceDeps{MetricRepo: store})

	cases := []domain.Metric{
		&domain.WeightMetric{Weight: -1},
		&domain.WeightMetric{Weight: 70, Unit: "stone"},
		&domain.HormoneMetric{},
		&domain.HeadacheMetric{Severity: "unbearable"},
		&domain.StomachMetric{Severity: "mild", Symptoms: []string{"hiccups"}},
		&domain.SleepMetric{HoursSlept: 25},
	}
	for _, m := range cases {
		_, err := svc.Save(context.Background(), "u1", m.Kind(), day("2024-03-01"), m)
		assert.ErrorIs(t, err, domain.ErrBadRequest, "%T", m)
	}
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestSave_BuildsKeysAndDefaults(t *testing.T) {
	store := &mockEntryStore{}
	store.On("Put", mock.Anything, mock.AnythingOfType("*domain.HealthEntry")).Return(nil)
	svc := NewService(ServiceDeps{MetricRepo: store})

	e, err := svc.Save(context.Background(), "u1", domain.MetricWeight, day("2024-03-01"), &domain.WeightMetric{Weight: 61.5})
	require.NoError(t, err)
	assert.Equal(t, "u1#weight", e.UserKind)
	assert.True(t, strings.HasPrefix(e.EntryKey, "2024-03-01T00:00:00Z#"))
	assert.True(t, strings.HasSuffix(e.EntryKey, e.EntryID))
	require.NotNil(t, e.Weight)
	assert.Equal(t, "kg", e.Weight.Unit)
	assert.Equal(t, domain.MetricWeight, e.Kind)
}

func TestHistory_ClampsLimit(t *testing.T) {
	store := &mockEntryStore{}
	store.On("ListRecent", mock.Anything, "u1", domain.MetricSleep, int32(DefaultHistoryLimit)).Return([]domain.HealthEntry{}, nil).Once()
	store.On("ListRecent", mock.Anything, "u1", domain.MetricSleep, int32(MaxHistoryLimit)).Return([]domain.HealthEntry{}, nil).Once()
	svc := NewService(ServiceDeps{MetricRepo: store})

	_, err := svc.History(context.Background(), "u1", domain.MetricSleep, 0)
	require.NoError(t, err)
	_, err = svc.History(context.Background(), "u1", domain.MetricSleep, 5000)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestLatest_EmptySeries(t *testing.T) {
	store := &mockEntryStore{}
	store.On("ListRecent", mock.Anything, "u1", domain.MetricStress, int32(1)).Return([]domain.HealthEntry{}, nil)

	e, err := NewService(ServiceDeps{MetricRepo: store}).Latest(context.Background(), "u1", domain.MetricStress)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSaveThenLatest_HistoryIsDateDescending(t *testing.T) {
	store := &memStore{items: map[string][]domain.HealthEntry{}}
	svc := NewService(ServiceDeps{MetricRepo: store})
	ctx := context.Background()

	for _, d := range []string{"2024-03-02", "2024-03-05", "2024-03-01", "2024-03-05"} {
		_, err := svc.Save(ctx, "u1", domain.MetricSleep, day(d), &domain.SleepMetric{HoursSlept: 7})
		require.NoError(t, err)
	}
	last, err := svc.Save(ctx, "u1", domain.MetricSleep, day("2024-03-09"), &domain.SleepMetric{HoursSlept: 6, SleepQuality: "good"})
	require.NoError(t, err)

	got, err := svc.Latest(ctx, "u1", domain.MetricSleep)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, last.EntryID, got.EntryID)

	hist, err := svc.History(ctx, "u1", domain.MetricSleep, 0)
	require.NoError(t, err)
	require.Len(t, hist, 5)
	for i := 1; i < len(hist); i++ {
		assert.False(t, hist[i].Date.After(hist[i-1].Date))
	}

	other, err := svc.History(ctx, "u1", domain.MetricWeight, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
