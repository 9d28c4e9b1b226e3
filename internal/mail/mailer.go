package mail

import (
	"context"
	"log/slog"
)

// Mailer delivers a single message out-of-band. Delivery can fail
// independently of any database state; callers decide what that means for
// their own writes.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// LogMailer is the development fallback: it logs the message instead of
// delivering it, so local flows work without an SMTP relay.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, textBody, _ string) error {
	m.logger.InfoContext(ctx, "mail delivery skipped (dev mode)",
		"to", to,
		"subject", subject,
		"body", textBody,
	)
	return nil
}
