package mailer

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog"
)

// Mailer sends templated notification email. Callers treat it as
// fire-and-forget: a failed send is logged by the caller, never
// propagated to whoever triggered the notification.
type Mailer interface {
	Send(ctx context.Context, to, subject string, kind TemplateKind, data TemplateData) error
}

type MailgunMailer struct {
	mg   *mailgun.MailgunImpl
	from string
	log  zerolog.Logger
}

func NewMailgun(domain, apiKey, from string, log zerolog.Logger) *MailgunMailer {
	return &MailgunMailer{
		mg:   mailgun.NewMailgun(domain, apiKey),
		from: from,
		log:  log.With().Str("component", "mailer").Logger(),
	}
}

func (m *MailgunMailer) Send(ctx context.Context, to, subject string, kind TemplateKind, data TemplateData) error {
	body, err := RenderTemplate(kind, data)
	if err != nil {
		return err
	}

	msg := m.mg.NewMessage(m.from, subject, "", to)
	msg.SetHtml(body)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, id, err := m.mg.Send(ctx, msg)
	if err != nil {
		return err
	}

	m.log.Info().Str("to", to).Str("message_id", id).Str("template", string(kind)).Msg("email sent")
	return nil
}

// NoopMailer logs what would have been sent. Used when no mail provider
// is configured, matching how the rest of the system treats email as an
// optional fallback.
type NoopMailer struct {
	log zerolog.Logger
}

func NewNoop(log zerolog.Logger) *NoopMailer {
	return &NoopMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *NoopMailer) Send(_ context.Context, to, subject string, kind TemplateKind, _ TemplateData) error {
	m.log.Info().Str("to", to).Str("subject", subject).Str("template", string(kind)).
		Msg("mail provider not configured, skipping email")
	return nil
}
