package port

import (
	"context"
	"time"

	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
)

// RequestRepository defines persistence operations for LeaveRequest
type RequestRepository interface {
	Create(ctx context.Context, req *entity.LeaveRequest) error
	Get(ctx context.Context, id string) (*entity.LeaveRequest, error)

	// GetForUpdate reads the request inside the transaction carried by ctx.
	// The write lock is held by that transaction until it ends.
	GetForUpdate(ctx context.Context, id string) (*entity.LeaveRequest, error)

	// UpdateStatus moves a pending request to a terminal status.
	// Returns ErrAlreadyDecided if the row is no longer pending.
	UpdateStatus(ctx context.Context, id string, status entity.Status, approverID string, manualOverride bool, decidedAt time.Time) error

	// ListForViewer returns the viewer's own requests plus those whose owner
	// role falls in scope, newest first.
	ListForViewer(ctx context.Context, employeeID string, scope hierarchy.Scope) ([]*entity.LeaveRequest, error)
}

// StepRepository defines persistence operations for ApprovalStep
type StepRepository interface {
	// CreateChain inserts one pending step per role in chain order
	CreateChain(ctx context.Context, requestID string, roles []string) error

	// RecordOutcome writes the outcome on step (requestID, role).
	// Returns ErrStepNotFound if the request has no such step.
	RecordOutcome(ctx context.Context, requestID, role string, outcome entity.Outcome) (*entity.ApprovalStep, error)

	ListSteps(ctx context.Context, requestID string) ([]*entity.ApprovalStep, error)
	ListStepsForRequests(ctx context.Context, requestIDs []string) (map[string][]*entity.ApprovalStep, error)
}

// HistoryRepository defines persistence operations for ApprovalHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error
	ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error)
}

// EmployeeRepository defines persistence operations for the local employee directory
type EmployeeRepository interface {
	Upsert(ctx context.Context, emp *entity.Employee) error
	GetByID(ctx context.Context, id string) (*entity.Employee, error)
	List(ctx context.Context) ([]*entity.Employee, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
