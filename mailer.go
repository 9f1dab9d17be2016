package pitchside

import (
	"context"

	"go.uber.org/zap"
)

// Email is a templated message handed to a Mailer.
type Email struct {
	Template string
	To       string
	CC       []string
	ReplyTo  string
	Data     map[string]string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// default until a real transport is configured.
type LogMailer struct {
	Logger *zap.Logger
}

// Send implements Mailer.
func (m LogMailer) Send(_ context.Context, msg Email) error {
	m.Logger.Info("email",
		zap.String("template", msg.Template),
		zap.String("to", msg.To),
		zap.Strings("cc", msg.CC),
		zap.String("reply_to", msg.ReplyTo),
		zap.Any("data", msg.Data),
	)
	return nil
}
