package notification

import (
	"context"
	"log/slog"

	"clearport/pkg/email"
)

// LogSender "delivers" by logging. Used in development and whenever no SMTP
// relay is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "decision email (log sender)",
		"to", email.Redact(msg.To),
		"subject", msg.Subject,
	)
	return nil
}
