package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/id"
	"github.com/medtrax-api/internal/pkg/validate"
	"go.uber.org/zap"
)

// List filters accepted by Service.List.
const (
	FilterAll       = "all"
	FilterActive    = domain.ReminderActive
	FilterCompleted = domain.ReminderCompleted
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.ReminderRequest) (*domain.Reminder, error)
	Update(ctx context.Context, userID, reminderID string, req domain.ReminderRequest) (*domain.Reminder, error)
	Delete(ctx context.Context, userID, reminderID string) error
	List(ctx context.Context, userID, filter string) ([]domain.Reminder, error)
	// CompleteExpired marks every active reminder whose range has ended as completed.
	CompleteExpired(ctx context.Context) (int, error)
}

type reminderStore interface {
	Put(ctx context.Context, rem *domain.Reminder) error
	Get(ctx context.Context, reminderID string) (*domain.Reminder, error)
	Delete(ctx context.Context, reminderID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Reminder, error)
	ListEndedActive(ctx context.Context, day string) ([]domain.Reminder, error)
	SetStatus(ctx context.Context, reminderID, status string) error
}

type occurrenceStore interface {
	PutMany(ctx context.Context, occs []domain.Occurrence) error
	DeleteByReminder(ctx context.Context, reminderID string) ([]string, error)
}

type imageStore interface {
	UploadDataURI(ctx context.Context, keyPrefix, dataURI string) (string, error)
}

type service struct {
	reminders   reminderStore
	occurrences occurrenceStore
	images      imageStore
	log         *zap.Logger
	defaultTZ   string
	now         func() time.Time
}

type ServiceDeps struct {
	ReminderRepo   reminderStore
	OccurrenceRepo occurrenceStore
	ImageStore     imageStore
	Logger         *zap.Logger
	// DefaultTimezone applies when a request carries no timezone.
	DefaultTimezone string
}

func NewService(deps ServiceDeps) Service {
	tz := deps.DefaultTimezone
	if tz == "" {
		tz = "UTC"
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		reminders:   deps.ReminderRepo,
		occurrences: deps.OccurrenceRepo,
		images:      deps.ImageStore,
		log:         log,
		defaultTZ:   tz,
		now:         time.Now,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.ReminderRequest) (*domain.Reminder, error) {
	now := s.now().UTC()
	rem := &domain.Reminder{
		ReminderID: id.New(),
		UserID:     userID,
		Status:     domain.ReminderActive,
		CreatedAt:  now,
	}
	if err := s.apply(rem, req, now); err != nil {
		return nil, err
	}
	occs, err := Expand(rem, now)
	if err != nil {
		return nil, err
	}
	if err := s.attachImage(ctx, rem, req.Image); err != nil {
		return nil, err
	}
	if err := s.reminders.Put(ctx, rem); err != nil {
		return nil, err
	}
	if err := s.schedule(ctx, rem, occs); err != nil {
		if delErr := s.reminders.Delete(ctx, rem.ReminderID); delErr != nil {
			s.log.Error("remove unscheduled reminder",
				zap.String("reminder_id", rem.ReminderID), zap.Error(delErr))
		}
		return nil, err
	}
	return rem, nil
}

func (s *service) Update(ctx context.Context, userID, reminderID string, req domain.ReminderRequest) (*domain.Reminder, error) {
	rem, err := s.owned(ctx, userID, reminderID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.apply(rem, req, now); err != nil {
		return nil, err
	}
	occs, err := Expand(rem, now)
	if err != nil {
		return nil, err
	}
	if err := s.attachImage(ctx, rem, req.Image); err != nil {
		return nil, err
	}
	rem.Status = domain.ReminderActive
	if rem.CompletedAt(now) {
		rem.Status = domain.ReminderCompleted
	}

	cancelled, err := s.occurrences.DeleteByReminder(ctx, rem.ReminderID)
	if err != nil {
		return nil, fmt.Errorf("cancel occurrences: %w", err)
	}
	if err := s.reminders.Put(ctx, rem); err != nil {
		return nil, err
	}
	if err := s.schedule(ctx, rem, occs); err != nil {
		return nil, err
	}
	s.log.Debug("reminder rescheduled",
		zap.String("reminder_id", rem.ReminderID),
		zap.Int("cancelled", len(cancelled)),
		zap.Int("scheduled", len(occs)))
	return rem, nil
}

func (s *service) Delete(ctx context.Context, userID, reminderID string) error {
	if _, err := s.owned(ctx, userID, reminderID); err != nil {
		return err
	}
	if _, err := s.occurrences.DeleteByReminder(ctx, reminderID); err != nil {
		return fmt.Errorf("cancel occurrences: %w", err)
	}
	return s.reminders.Delete(ctx, reminderID)
}

func (s *service) List(ctx context.Context, userID, filter string) ([]domain.Reminder, error) {
	if filter == "" {
		filter = FilterAll
	}
	if filter != FilterAll && filter != FilterActive && filter != FilterCompleted {
		return nil, fmt.Errorf("unknown status filter %q: %w", filter, domain.ErrBadRequest)
	}
	all, err := s.reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]domain.Reminder, 0, len(all))
	for _, r := range all {
		if r.CompletedAt(now) {
			r.Status = domain.ReminderCompleted
		}
		if filter == FilterAll || r.Status == filter {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *service) CompleteExpired(ctx context.Context) (int, error) {
	now := s.now()
	// end_date < tomorrow (UTC) covers every timezone; CompletedAt settles the rest.
	candidates, err := s.reminders.ListEndedActive(ctx, now.UTC().AddDate(0, 0, 1).Format(domain.DateLayout))
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range candidates {
		r := &candidates[i]
		if !r.CompletedAt(now) {
			continue
		}
		if err := s.reminders.SetStatus(ctx, r.ReminderID, domain.ReminderCompleted); err != nil {
			s.log.Warn("complete reminder", zap.String("reminder_id", r.ReminderID), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

func (s *service) owned(ctx context.Context, userID, reminderID string) (*domain.Reminder, error) {
	rem, err := s.reminders.Get(ctx, reminderID)
	if err != nil {
		return nil, err
	}
	if rem.UserID != userID {
		return nil, fmt.Errorf("reminder belongs to another user: %w", domain.ErrForbidden)
	}
	return rem, nil
}

// apply validates req and copies it onto rem. Images are handled by attachImage.
func (s *service) apply(rem *domain.Reminder, req domain.ReminderRequest, now time.Time) error {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = s.defaultTZ
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", tz, domain.ErrBadRequest)
	}

	rem.Name = req.Name
	rem.StartDate = req.StartDate
	rem.EndDate = req.EndDate
	rem.Times = req.Times
	rem.Days = dedupe(req.Days)
	rem.Timezone = tz
	rem.Notes = req.Notes
	rem.UpdatedAt = now
	return nil
}

// attachImage sets the reminder image. A data URI is uploaded first; an empty
// value keeps the current image.
func (s *service) attachImage(ctx context.Context, rem *domain.Reminder, image string) error {
	if image == "" {
		return nil
	}
	if strings.HasPrefix(image, "data:") {
		url, err := s.images.UploadDataURI(ctx, "reminders/"+rem.UserID+"/"+rem.ReminderID, image)
		if err != nil {
			return fmt.Errorf("upload reminder image: %w", err)
		}
		image = url
	}
	rem.Image = image
	return nil
}

func (s *service) schedule(ctx context.Context, rem *domain.Reminder, occs []domain.Occurrence) error {
	if len(occs) == 0 {
		return nil
	}
	now := s.now().UTC()
	for i := range occs {
		occs[i].CreatedAt = now
	}
	if err := s.occurrences.PutMany(ctx, occs); err != nil {
		return fmt.Errorf("schedule occurrences for %s: %w", rem.ReminderID, err)
	}
	return nil
}

func dedupe(days []string) []string {
	if len(days) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(days))
	out := make([]string, 0, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
