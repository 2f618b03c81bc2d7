package webpush

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	wp "github.com/SherClockHolmes/webpush-go"
	"github.com/medtrax-api/internal/domain"
)

// ErrSubscriptionGone means the push service no longer accepts the endpoint.
var ErrSubscriptionGone = domain.ErrSubscriptionGone

// messageTTL is how long the push service may hold an undelivered message, in seconds.
const messageTTL = 3600

// Sender delivers VAPID-signed Web Push messages.
type Sender struct {
	publicKey  string
	privateKey string
	subscriber string
	httpClient *http.Client
}

func NewSender(publicKey, privateKey, subject string) *Sender {
	return &Sender{
		publicKey:  publicKey,
		privateKey: privateKey,
		// the library adds the mailto: scheme itself
		subscriber: strings.TrimPrefix(subject, "mailto:"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// PublicKey is the application server key browsers subscribe with.
func (s *Sender) PublicKey() string { return s.publicKey }

func (s *Sender) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	resp, err := wp.SendNotificationWithContext(ctx, payload, &wp.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     wp.Keys{P256dh: sub.Keys.P256dh, Auth: sub.Keys.Auth},
	}, &wp.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             messageTTL,
		Urgency:         wp.UrgencyHigh,
	})
	if err != nil {
		return fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 300:
		return fmt.Errorf("web push: push service returned %d", resp.StatusCode)
	}
	return nil
}
