package health

import (
	"context"
	"fmt"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/id"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type Service interface {
	Save(ctx context.Context, userID string, kind domain.MetricKind, date time.Time, m domain.Metric) (*domain.HealthEntry, error)
	History(ctx context.Context, userID string, kind domain.MetricKind, limit int) ([]domain.HealthEntry, error)
	// Latest returns nil without error when the series is empty.
	Latest(ctx context.Context, userID string, kind domain.MetricKind) (*domain.HealthEntry, error)
}

type entryStore interface {
	Put(ctx context.Context, e *domain.HealthEntry) error
	ListRecent(ctx context.Context, userID string, kind domain.MetricKind, limit int32) ([]domain.HealthEntry, error)
}

type service struct {
	entries entryStore
	now     func() time.Time
}

type ServiceDeps struct {
	MetricRepo entryStore
}

func NewService(deps ServiceDeps) Service {
	return &service{entries: deps.MetricRepo, now: time.Now}
}

func (s *service) Save(ctx context.Context, userID string, kind domain.MetricKind, date time.Time, m domain.Metric) (*domain.HealthEntry, error) {
	if m == nil {
		return nil, fmt.Errorf("missing %s payload: %w", kind, domain.ErrBadRequest)
	}
	if m.Kind() != kind {
		return nil, fmt.Errorf("payload is %s, route is %s: %w", m.Kind(), kind, domain.ErrBadRequest)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("date is required: %w", domain.ErrBadRequest)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	entryID := id.New()
	date = date.UTC()
	e := &domain.HealthEntry{
		UserKind:  domain.HealthEntryKey(userID, kind),
		EntryKey:  date.Format(time.RFC3339) + "#" + entryID,
		EntryID:   entryID,
		UserID:    userID,
		Date:      date,
		CreatedAt: s.now().UTC(),
	}
	e.SetMetric(m)
	if err := s.entries.Put(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *service) History(ctx context.Context, userID string, kind domain.MetricKind, limit int) ([]domain.HealthEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return s.entries.ListRecent(ctx, userID, kind, int32(limit))
}

func (s *service) Latest(ctx context.Context, userID string, kind domain.MetricKind) (*domain.HealthEntry, error) {
	entries, err := s.entries.ListRecent(ctx, userID, kind, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
