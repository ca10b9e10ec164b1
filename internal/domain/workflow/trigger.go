package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerRecord records a step outcome that leaves the request pending
	TriggerRecord          Trigger = "RECORD"
	TriggerApprove         Trigger = "APPROVE"
	TriggerReject          Trigger = "REJECT"
	TriggerOverrideApprove Trigger = "OVERRIDE_APPROVE"
	TriggerOverrideReject  Trigger = "OVERRIDE_REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
