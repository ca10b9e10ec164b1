package entity

import "time"

// LeaveRequest represents one leave/vacation application
type LeaveRequest struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeRole string    `json:"employee_role"` // owner's role at submission time
	Type         LeaveType `json:"type"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	TotalDays    int       `json:"total_days"`
	BusinessDays int       `json:"business_days"`
	Reason       string    `json:"reason"`
	Status       Status    `json:"status"`

	FinalApproverID string     `json:"final_approver_id,omitempty"`
	ManualOverride  bool       `json:"manual_override"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the request has been approved or rejected
func (r *LeaveRequest) IsTerminal() bool {
	return r.Status.IsTerminal()
}

// DateRange is an inclusive span of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns the inclusive calendar span, or 0 when End precedes Start
func (d DateRange) Days() int {
	start := truncateDay(d.Start)
	end := truncateDay(d.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Valid reports whether both ends are set and Start <= End
func (d DateRange) Valid() bool {
	if d.Start.IsZero() || d.End.IsZero() {
		return false
	}
	return !truncateDay(d.End).Before(truncateDay(d.Start))
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
