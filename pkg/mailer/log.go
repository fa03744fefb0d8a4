package mailer

import (
	"context"

	"github.com/petalworks/petalworks-backend/pkg/logger"
)

// LogMailer writes mail to the log instead of delivering it. Used when
// mail is disabled, typically in dev and test environments.
type LogMailer struct {
	logg *logger.Logger
}

func NewLog(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"mail_to":      msg.To,
			"mail_subject": msg.Subject,
		})
		m.logg.Info(ctx, "mail suppressed (mailer disabled)")
	}
	return nil
}
