package port

import (
	"context"
	"io"
	"time"

	"github.com/garyjia/leave-approval/internal/domain/entity"
)

// Directory resolves employee data owned by an external directory service
type Directory interface {
	// GetEmployeeRole returns ErrEmployeeNotFound for unknown employees
	GetEmployeeRole(ctx context.Context, employeeID string) (string, error)

	// GetDisplayName is used for presentation only; a miss returns ""
	GetDisplayName(ctx context.Context, employeeID string) (string, error)
}

// BusinessDayCounter counts working days in an inclusive date range
type BusinessDayCounter interface {
	BusinessDays(start, end time.Time) int
}

// Notification is a rendered message for one recipient
type Notification struct {
	RecipientID string
	Subject     string
	Body        string
	RequestID   string
}

// Notifier delivers notifications; delivery itself is external
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// ExportRow is one request line in a spreadsheet export
type ExportRow struct {
	Request       *entity.LeaveRequest
	EmployeeName  string
	RequiredRoles []string
	Completed     []string
	NextActorRole string
}

// Exporter writes request rows to w in a tabular format
type Exporter interface {
	Write(ctx context.Context, w io.Writer, rows []ExportRow) error
	ContentType() string
}
