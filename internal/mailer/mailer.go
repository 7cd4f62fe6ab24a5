// Package mailer delivers transactional email over SMTP, or to the log when
// no relay is configured.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"peertutor/internal/config"
	"peertutor/internal/middleware"
	"peertutor/internal/observability"

	"gopkg.in/gomail.v2"
)

// Mail is one outgoing message. Kind labels metrics ("otp", "booking", ...).
type Mail struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

// Mailer sends mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// New returns an SMTP mailer when cfg names a relay and a LogMailer otherwise.
func New(cfg *config.Config) Mailer {
	if !cfg.MailEnabled() {
		return NewLogMailer(middleware.Logger)
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

// SMTPMailer sends HTML mail through an SMTP relay.
type SMTPMailer struct {
	from string
	dial func() (gomail.SendCloser, error)
}

// NewSMTPMailer builds a mailer for host:port authenticating as user.
func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	d := gomail.NewDialer(host, port, user, password)
	return &SMTPMailer{from: from, dial: d.Dial}
}

func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.Body)

	err := s.deliver(msg)
	record(m.Kind, err)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "mail delivery failed",
			slog.String("kind", m.Kind),
			slog.String("to", m.To),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("send %s mail: %w", m.Kind, err)
	}
	return nil
}

func (s *SMTPMailer) deliver(msg *gomail.Message) error {
	sc, err := s.dial()
	if err != nil {
		return err
	}
	defer sc.Close()
	return gomail.Send(sc, msg)
}

// LogMailer writes mail to a logger instead of sending it.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a LogMailer writing to l.
func NewLogMailer(l *slog.Logger) *LogMailer {
	return &LogMailer{logger: l}
}

func (l *LogMailer) Send(ctx context.Context, m Mail) error {
	l.logger.InfoContext(ctx, "mail not sent, no SMTP relay configured",
		slog.String("kind", m.Kind),
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
	)
	record(m.Kind, nil)
	return nil
}

func record(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	observability.MailDeliveriesTotal.WithLabelValues(kind, result).Inc()
}
