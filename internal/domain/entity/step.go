package entity

import "time"

// ApprovalStep is one required sign-off within a request's chain.
// (RequestID, Role) is unique; SequenceIndex is fixed at creation.
type ApprovalStep struct {
	ID            int64      `json:"id"`
	RequestID     string     `json:"request_id"`
	Role          string     `json:"role"`
	SequenceIndex int        `json:"sequence_index"`
	ApproverID    string     `json:"approver_id,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	Action        Action     `json:"action"`
	Mode          Mode       `json:"mode"`
	ManualReason  string     `json:"manual_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDecided reports whether the step has a recorded outcome
func (s *ApprovalStep) IsDecided() bool {
	return s.Action != ActionNone
}

// Outcome is the data recorded on a step when an actor acts on it
type Outcome struct {
	ApproverID   string
	Action       Action
	Mode         Mode
	ManualReason string
	DecidedAt    time.Time
}
