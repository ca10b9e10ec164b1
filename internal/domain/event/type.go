package event

// Type represents the type of domain event
type Type string

const (
	TypeRequestSubmitted    Type = "request.submitted"
	TypeRequestStepRecorded Type = "request.step_recorded"
	TypeRequestApproved     Type = "request.approved"
	TypeRequestRejected     Type = "request.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsTerminal reports whether the event marks a final decision
func (t Type) IsTerminal() bool {
	return t == TypeRequestApproved || t == TypeRequestRejected
}
