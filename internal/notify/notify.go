// Package notify defines the outbound notification sinks. Delivery is
// fire and forget: failures are logged and never surfaced to the caller
// of the triggering mutation.
package notify

import (
	"context"
	"log/slog"
)

// MailSender delivers one email.
type MailSender interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Notifier wraps the configured sinks behind the fire-and-forget policy.
type Notifier struct {
	mail MailSender
	sms  SMSSender
	log  *slog.Logger
}

// New creates a Notifier. Either sink may be nil; sends to a nil sink are
// dropped silently.
func New(log *slog.Logger, mail MailSender, sms SMSSender) *Notifier {
	return &Notifier{
		mail: mail,
		sms:  sms,
		log:  log.With("service", "notify"),
	}
}

// Mail sends an email without blocking the caller on the outcome.
func (n *Notifier) Mail(ctx context.Context, to, subject, body string) {
	if n.mail == nil {
		return
	}
	if err := n.mail.SendMail(ctx, to, subject, body); err != nil {
		n.log.ErrorContext(ctx, "mail send failed",
			slog.String("to", to),
			slog.String("error", err.Error()),
		)
	}
}

// SMS sends a text message without blocking the caller on the outcome.
func (n *Notifier) SMS(ctx context.Context, to, message string) {
	if n.sms == nil {
		return
	}
	if err := n.sms.SendSMS(ctx, to, message); err != nil {
		n.log.ErrorContext(ctx, "sms send failed",
			slog.String("to", to),
			slog.String("error", err.Error()),
		)
	}
}

// LogSink writes would-be notifications to the log. Stands in for real
// providers in environments without mail or SMS credentials.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) SendMail(ctx context.Context, to, subject, _ string) error {
	s.Log.InfoContext(ctx, "mail (log sink)", slog.String("to", to), slog.String("subject", subject))
	return nil
}

func (s LogSink) SendSMS(ctx context.Context, to, message string) error {
	s.Log.InfoContext(ctx, "sms (log sink)", slog.String("to", to), slog.String("message", message))
	return nil
}
