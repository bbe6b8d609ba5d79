package mail

import (
	"context"

	"github.com/agegate/webapp/internal/logging"
)

// LogNotifier logs messages instead of sending them. Development fallback.
type LogNotifier struct {
	log logging.Logger
}

// NewLogNotifier constructs a log-only notifier.
func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Send logs the message and reports success.
func (l *LogNotifier) Send(ctx context.Context, msg Message) error {
	l.log.Info(ctx, "mail not sent (log backend)", "to", msg.To, "subject", msg.Subject)
	return nil
}
