package services

import (
	"context"

	"github.com/guardget/guardget/internal/logging"
)

// Notifier delivers one-time codes out of band (mail, SMS). The server does
// not care which channel the destination addresses.
type Notifier interface {
	Send(ctx context.Context, destination, message string) error
}

// LogNotifier writes notifications to the log instead of delivering them.
// Used in development and tests where no mail or SMS gateway is wired up.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, destination, message string) error {
	n.logger.Info(ctx, "notification", "destination", destination, "message", message)
	return nil
}
