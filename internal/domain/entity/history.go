package entity

import "time"

// ApprovalHistory is an append-only audit entry for a request
type ApprovalHistory struct {
	ID             int64     `json:"id"`
	RequestID      string    `json:"request_id"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role,omitempty"`
	ActionType     string    `json:"action_type"`
	Action         Action    `json:"action,omitempty"`
	Mode           Mode      `json:"mode,omitempty"`
	Comment        string    `json:"comment,omitempty"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
	NewStatus      Status    `json:"new_status"`
	Timestamp      time.Time `json:"timestamp"`
}

// History action types
const (
	HistorySubmit   = "SUBMIT"
	HistoryAct      = "ACT"
	HistoryOverride = "OVERRIDE"
)
