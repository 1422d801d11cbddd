package newsletter

import (
	"context"
	"fmt"
	"log/slog"

	"crustline/internal/config"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	welcomeSubject = "Welcome to Crustline offers & news"
	welcomeText    = "Thanks for subscribing! We will send promotions and news straight to your inbox."
	welcomeHTML    = "<p>Thanks for subscribing!</p><p>We will send promotions and news straight to your inbox.</p>"
)

// Mailer sends the welcome message to a new subscriber.
type Mailer interface {
	Welcome(ctx context.Context, sub Subscriber) error
}

type mailClient interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendgridMailer struct {
	client mailClient
	from   *sgmail.Email
}

// NewMailer sends through SendGrid when an API key is configured and only
// logs otherwise.
func NewMailer(cfg config.NewsletterConfig) Mailer {
	if cfg.SendgridAPIKey == "" {
		return logMailer{}
	}
	return &sendgridMailer{
		client: sendgrid.NewSendClient(cfg.SendgridAPIKey),
		from:   sgmail.NewEmail("Crustline", cfg.From),
	}
}

func (m *sendgridMailer) Welcome(ctx context.Context, sub Subscriber) error {
	to := sgmail.NewEmail("", sub.Email)
	message := sgmail.NewSingleEmail(m.from, welcomeSubject, to, welcomeText, welcomeHTML)
	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("send welcome mail: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send welcome mail: status %d: %s", resp.StatusCode, resp.Body)
	}
	slog.InfoContext(ctx, "sent welcome mail", "subscriber", sub.ID, "status", resp.StatusCode)
	return nil
}

type logMailer struct{}

func (logMailer) Welcome(ctx context.Context, sub Subscriber) error {
	slog.InfoContext(ctx, "welcome mail not sent, no SendGrid key configured", "subscriber", sub.ID)
	return nil
}
