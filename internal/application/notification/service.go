package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/medtrax-api/internal/domain"
	"github.com/medtrax-api/internal/pkg/id"
	"github.com/medtrax-api/internal/pkg/validate"
	"go.uber.org/zap"
)

// dispatchBatch caps how many due occurrences one DispatchDue call handles.
const dispatchBatch = 100

type Service interface {
	VapidPublicKey() string
	Subscribe(ctx context.Context, userID string, sub domain.PushSubscription) error
	ScheduleAdHoc(ctx context.Context, userID string, req domain.ScheduleRequest) (*domain.Occurrence, error)
	// DispatchDue delivers pending occurrences due at now and returns how many were claimed.
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

type subscriptionStore interface {
	Upsert(ctx context.Context, s *domain.PushSubscription) error
	ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

type occurrenceStore interface {
	PutMany(ctx context.Context, occs []domain.Occurrence) error
	Due(ctx context.Context, now time.Time, limit int32) ([]domain.Occurrence, error)
	Claim(ctx context.Context, occurrenceID string, at time.Time) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type pushSender interface {
	PublicKey() string
	Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	subs        subscriptionStore
	occurrences occurrenceStore
	users       userStore
	push        pushSender
	sms         smsSender
	log         *zap.Logger
	now         func() time.Time
}

type ServiceDeps struct {
	SubscriptionRepo subscriptionStore
	OccurrenceRepo   occurrenceStore
	UserRepo         userStore
	PushSender       pushSender
	// SMSSender is the fallback for users without push subscriptions. Nil disables SMS.
	SMSSender smsSender
	Logger    *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		subs:        deps.SubscriptionRepo,
		occurrences: deps.OccurrenceRepo,
		users:       deps.UserRepo,
		push:        deps.PushSender,
		sms:         deps.SMSSender,
		log:         log,
		now:         time.Now,
	}
}

func (s *service) VapidPublicKey() string {
	return s.push.PublicKey()
}

func (s *service) Subscribe(ctx context.Context, userID string, sub domain.PushSubscription) error {
	if err := validate.Struct(&sub); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	sub.UserID = userID
	return s.subs.Upsert(ctx, &sub)
}

func (s *service) ScheduleAdHoc(ctx context.Context, userID string, req domain.ScheduleRequest) (*domain.Occurrence, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), domain.ErrBadRequest)
	}
	now := s.now().UTC()
	if req.Time.Before(now) {
		return nil, fmt.Errorf("time must be in the future: %w", domain.ErrBadRequest)
	}
	if req.Subscription != nil {
		if err := s.Subscribe(ctx, userID, *req.Subscription); err != nil {
			return nil, err
		}
	}
	occ := domain.Occurrence{
		OccurrenceID: id.New(),
		UserID:       userID,
		Title:        req.Title,
		Body:         req.Body,
		FireAt:       req.Time.UTC(),
		Pending:      domain.PendingFlag,
		CreatedAt:    now,
	}
	if err := s.occurrences.PutMany(ctx, []domain.Occurrence{occ}); err != nil {
		return nil, err
	}
	return &occ, nil
}

func (s *service) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.occurrences.Due(ctx, now, dispatchBatch)
	if err != nil {
		return 0, err
	}
	claimed := 0
	for _, occ := range due {
		if err := s.occurrences.Claim(ctx, occ.OccurrenceID, now); err != nil {
			if !errors.Is(err, domain.ErrConflict) {
				s.log.Warn("claim occurrence", zap.String("occurrence_id", occ.OccurrenceID), zap.Error(err))
			}
			continue
		}
		claimed++
		s.deliver(ctx, occ)
	}
	return claimed, nil
}

// deliver pushes occ to every subscription of its user. Failures are logged and not retried.
func (s *service) deliver(ctx context.Context, occ domain.Occurrence) {
	log := s.log.With(zap.String("occurrence_id", occ.OccurrenceID), zap.String("user_id", occ.UserID))

	subs, err := s.subs.ListByUser(ctx, occ.UserID)
	if err != nil {
		log.Error("list push subscriptions", zap.Error(err))
		return
	}
	if len(subs) == 0 {
		s.deliverSMS(ctx, log, occ)
		return
	}

	tag := occ.ReminderID
	if tag == "" {
		tag = occ.OccurrenceID
	}
	payload, err := json.Marshal(domain.PushMessage{Title: occ.Title, Body: occ.Body, Tag: tag})
	if err != nil {
		log.Error("encode push payload", zap.Error(err))
		return
	}
	for _, sub := range subs {
		err := s.push.Send(ctx, sub, payload)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSubscriptionGone):
			log.Info("dropping expired push subscription", zap.String("endpoint", sub.Endpoint))
			if err := s.subs.Delete(ctx, sub.Endpoint); err != nil {
				log.Warn("delete push subscription", zap.Error(err))
			}
		default:
			log.Warn("push delivery failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}

func (s *service) deliverSMS(ctx context.Context, log *zap.Logger, occ domain.Occurrence) {
	if s.sms == nil {
		log.Debug("no push subscriptions and sms disabled")
		return
	}
	u, err := s.users.Get(ctx, occ.UserID)
	if err != nil {
		log.Warn("load user for sms", zap.Error(err))
		return
	}
	if u.Phone == "" {
		return
	}
	if err := s.sms.SendSMS(ctx, u.Phone, occ.Title+": "+occ.Body); err != nil {
		log.Warn("sms delivery failed", zap.Error(err))
	}
}
