// Package notification delivers balance alerts to account holders. The
// default channel simulates email delivery through the log; a Kafka producer
// can be configured instead to hand alerts to a downstream delivery system.
package notification

import (
	"context"
	"log/slog"
)

// Notifier sends an alert message to an account holder. Delivery is
// fire-and-forget: callers log failures and never propagate them.
type Notifier interface {
	Send(ctx context.Context, address, subject, body string) error
}

// LogNotifier simulates email delivery by writing the message to the log
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the message as a simulated email
func (n *LogNotifier) Send(_ context.Context, address, subject, body string) error {
	n.logger.Info("Simulated email sent",
		"to", address,
		"subject", subject,
		"body", body,
	)
	return nil
}
