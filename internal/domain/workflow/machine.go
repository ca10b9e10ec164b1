package workflow

import (
	"context"
	"sync"
)

// StateMachine tracks the current state of one request and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error
}

// requestBuilder holds the leave request lifecycle; machines built from it are independent
var (
	requestBuilder     StateMachineBuilder
	requestBuilderOnce sync.Once
)

func newRequestBuilder() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StatePending).
		Permit(TriggerRecord, StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerOverrideApprove, StateApproved).
		Permit(TriggerOverrideReject, StateRejected)
	return b
}

// NewRequestMachine returns a machine for a request currently in state.
// Approved and rejected are configured with no outgoing transitions.
func NewRequestMachine(state State) (StateMachine, error) {
	if !state.IsValid() {
		return nil, ErrInvalidState
	}
	requestBuilderOnce.Do(func() { requestBuilder = newRequestBuilder() })
	return requestBuilder.Build(state), nil
}
