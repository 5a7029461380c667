// Package mailer delivers digests by email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/car-watch/internal/models"
	"github.com/wneessen/go-mail"
)

var ErrNoSender = errors.New("mailer: sender address is empty")

// Sender delivers prepared messages; *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Options configures the SMTP connection.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends one email per digest to the recipients of the search.
type Mailer struct {
	log    *slog.Logger
	sender Sender
	from   string
}

// New builds a Mailer talking to the SMTP server described by opts.
func New(log *slog.Logger, opts Options) (*Mailer, error) {
	if opts.From == "" {
		return nil, ErrNoSender
	}

	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return NewWithSender(log, client, opts.From), nil
}

// NewWithSender builds a Mailer on top of an existing Sender.
func NewWithSender(log *slog.Logger, sender Sender, from string) *Mailer {
	return &Mailer{log: log, sender: sender, from: from}
}

func (m *Mailer) Name() string { return "email" }

// Send mails the digest. Notifications without recipients are skipped.
func (m *Mailer) Send(ctx context.Context, n models.Notification) error {
	const opn = "mailer.Send"

	if len(n.Recipients) == 0 {
		m.log.DebugContext(ctx, "No email recipients, skipping", "op", opn, "source", n.Source, "model", n.Model)
		return nil
	}

	msg, err := m.message(n)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	if err = m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%s: failed to send email: %w", opn, err)
	}

	m.log.InfoContext(ctx, "Email sent", "op", opn, "source", n.Source, "recipients", len(n.Recipients))

	return nil
}

func (m *Mailer) message(n models.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(n.Recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}

	msg.Subject(Subject(n))
	msg.SetBodyString(mail.TypeTextPlain, n.Text)

	return msg, nil
}

// Subject returns e.g. "[car-watch] New icarros ads: fit".
func Subject(n models.Notification) string {
	subject := "[car-watch] New " + n.Source + " ads"
	if n.Model != "" {
		subject += ": " + n.Model
	}
	return subject
}
