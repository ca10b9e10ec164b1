package metrics

import (
	"context"

	"github.com/garyjia/leave-approval/internal/domain/event"
)

// Recorder updates workflow collectors from domain events
type Recorder struct {
	m *Metrics
}

// NewRecorder creates a recorder for m
func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{m: m}
}

// Types lists the events the recorder consumes
func (r *Recorder) Types() []event.Type {
	return []event.Type{
		event.TypeRequestSubmitted,
		event.TypeRequestStepRecorded,
		event.TypeRequestApproved,
		event.TypeRequestRejected,
	}
}

// HandleEvent matches the dispatcher handler signature
func (r *Recorder) HandleEvent(ctx context.Context, evt *event.Event) error {
	switch evt.Type {
	case event.TypeRequestSubmitted:
		r.m.RequestsSubmitted.WithLabelValues(evt.GetPayloadString(event.KeyRole)).Inc()
	case event.TypeRequestStepRecorded:
		r.m.StepsRecorded.WithLabelValues(
			evt.GetPayloadString(event.KeyRole),
			evt.GetPayloadString(event.KeyAction),
			evt.GetPayloadString(event.KeyMode),
		).Inc()
	case event.TypeRequestApproved, event.TypeRequestRejected:
		status := evt.GetPayloadString(event.KeyStatus)
		r.m.RequestsDecided.WithLabelValues(status, evt.GetPayloadString(event.KeyMode)).Inc()
		r.m.DecidedBusinessDays.WithLabelValues(status).Observe(float64(evt.GetPayloadInt(event.KeyDays)))
	}
	return nil
}
