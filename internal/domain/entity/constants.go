package entity

import "strings"

// Status is the aggregate status of a LeaveRequest
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal returns true for approved and rejected
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsValid returns true if s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Action is the outcome recorded on a step
type Action string

const (
	ActionNone     Action = "none"
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

// IsDecision returns true for approved and rejected, the only actions an actor may submit
func (a Action) IsDecision() bool {
	return a == ActionApproved || a == ActionRejected
}

func (a Action) String() string {
	return string(a)
}

// ParseAction normalizes an action string. Unknown values are returned as-is
// so that validation can report them.
func ParseAction(s string) Action {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved", "approve":
		return ActionApproved
	case "rejected", "reject":
		return ActionRejected
	case "none", "":
		return ActionNone
	}
	return Action(s)
}

// Mode distinguishes a regular chain sign-off from a manual override
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeManual Mode = "manual"
)

// IsValid returns true if m is a known mode
func (m Mode) IsValid() bool {
	return m == ModeNormal || m == ModeManual
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode normalizes a mode string, defaulting empty input to normal
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return ModeNormal
	case "manual":
		return ModeManual
	}
	return Mode(s)
}

// LeaveType is the category tag of a request
type LeaveType string

const (
	LeaveTypeVacation LeaveType = "vacation"
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypePersonal LeaveType = "personal"
	LeaveTypeOther    LeaveType = "other"
)

// ParseLeaveType normalizes a type tag; ok is false for unknown tags
func ParseLeaveType(s string) (LeaveType, bool) {
	t := LeaveType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case LeaveTypeVacation, LeaveTypeSick, LeaveTypePersonal, LeaveTypeOther:
		return t, true
	}
	return t, false
}
