package mailgun

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// sendTimeout bounds a single Mailgun API call.
const sendTimeout = 10 * time.Second

// Mailer delivers email through the Mailgun HTTP API.
type Mailer struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailer(domain, apiKey, sender string) *Mailer {
	return &Mailer{client: mg.NewMailgun(domain, apiKey), sender: sender}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := m.client.NewMessage(m.sender, subject, body, to)
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}
