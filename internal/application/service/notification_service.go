package service

import (
	"context"
	"fmt"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/event"
)

// NotificationService turns request events into notifications for the owner
type NotificationService interface {
	HandleEvent(ctx context.Context, evt *event.Event) error
}

// NotificationEventTypes lists the events that produce owner notifications
func NotificationEventTypes() []event.Type {
	return []event.Type{
		event.TypeRequestSubmitted,
		event.TypeRequestStepRecorded,
		event.TypeRequestApproved,
		event.TypeRequestRejected,
	}
}

type notificationServiceImpl struct {
	notifier  port.Notifier
	directory port.Directory
	logger    Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifier port.Notifier, directory port.Directory, logger Logger) NotificationService {
	return &notificationServiceImpl{
		notifier:  notifier,
		directory: directory,
		logger:    logger,
	}
}

// HandleEvent matches the dispatcher handler signature
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	recipient := evt.GetPayloadString(event.KeyEmployeeID)
	if recipient == "" {
		s.logger.Warn("Event has no recipient", "event_type", evt.Type, "request_id", evt.RequestID)
		return nil
	}

	n, ok := s.render(ctx, recipient, evt)
	if !ok {
		return nil
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error("Failed to send notification",
			"error", err,
			"request_id", evt.RequestID,
			"recipient_id", recipient,
		)
		return fmt.Errorf("send notification: %w", err)
	}

	s.logger.Info("Notification sent",
		"event_type", evt.Type,
		"request_id", evt.RequestID,
		"recipient_id", recipient,
	)
	return nil
}

func (s *notificationServiceImpl) render(ctx context.Context, recipient string, evt *event.Event) (port.Notification, bool) {
	name, err := s.directory.GetDisplayName(ctx, recipient)
	if err != nil || name == "" {
		name = recipient
	}

	n := port.Notification{RecipientID: recipient, RequestID: evt.RequestID}
	switch evt.Type {
	case event.TypeRequestSubmitted:
		n.Subject = "Leave request received"
		n.Body = fmt.Sprintf("Hello %s, your request %s for %d business day(s) was submitted.",
			name, evt.RequestID, evt.GetPayloadInt(event.KeyDays))
	case event.TypeRequestStepRecorded:
		if evt.GetPayloadString(event.KeyStatus) != "pending" {
			return n, false
		}
		n.Subject = "Leave request progress"
		n.Body = fmt.Sprintf("Hello %s, %s %s your request %s. It is waiting for the next approver.",
			name, evt.GetPayloadString(event.KeyRole), evt.GetPayloadString(event.KeyAction), evt.RequestID)
	case event.TypeRequestApproved, event.TypeRequestRejected:
		n.Subject = "Leave request " + evt.GetPayloadString(event.KeyStatus)
		n.Body = fmt.Sprintf("Hello %s, your request %s was %s by %s.",
			name, evt.RequestID, evt.GetPayloadString(event.KeyStatus), evt.GetPayloadString(event.KeyApproverID))
		if evt.GetPayloadString(event.KeyMode) == "manual" {
			n.Body += " The decision was a manual override."
		}
	default:
		return n, false
	}
	return n, true
}
