package notification

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier delivers one rendered email.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SendGridNotifier sends mail through the SendGrid v3 API.
type SendGridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (n *SendGridNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", to))

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(n.fromName, n.fromEmail))
	m.Subject = subject
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := n.client.SendWithContext(ctx, m)
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogNotifier writes mail to the process log. Used when no provider is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("[NOTIFY] email to=%s subject=%q", to, subject)
	return nil
}
