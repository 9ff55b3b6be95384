package notifier

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// LogSender stands in for SMTP when no mail server is configured. It renders
// the message so template errors still surface, and logs the recipient.
// The code itself is never logged.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	content, err := render(n)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "email delivery disabled, message not sent", "to", n.Email, "subject", content.Subject)
	return nil
}
