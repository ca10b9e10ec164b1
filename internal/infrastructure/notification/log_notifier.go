// Package notification holds Notifier adapters. Delivery channels such as
// email live outside this service; the default adapter only logs.
package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/application/port"
)

// LogNotifier writes each notification to the log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg port.Notification) error {
	n.logger.Info("Notification",
		zap.String("recipient_id", msg.RecipientID),
		zap.String("request_id", msg.RequestID),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
