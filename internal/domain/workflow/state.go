package workflow

import "github.com/garyjia/leave-approval/internal/domain/entity"

// State represents a request state in the approval lifecycle
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
)

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	switch s {
	case StateApproved, StateRejected:
		return true
	}
	return false
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected:
		return true
	}
	return false
}

// Status converts the state to the persisted request status
func (s State) Status() entity.Status {
	return entity.Status(s)
}

// FromStatus converts a persisted request status to a state
func FromStatus(status entity.Status) State {
	return State(status)
}
