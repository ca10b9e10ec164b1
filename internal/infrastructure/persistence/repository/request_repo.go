package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/leave-approval/pkg/utils"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{db: db, logger: logger}
}

const requestColumns = `
	id, employee_id, employee_role, type, start_date, end_date,
	total_days, business_days, reason, status,
	final_approver_id, manual_override, decided_at, created_at, updated_at`

// Create inserts a pending request; the ID is assigned by the caller
func (r *RequestRepository) Create(ctx context.Context, req *entity.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		req.ID,
		req.EmployeeID,
		req.EmployeeRole,
		req.Type,
		req.StartDate.Format(utils.DateLayout),
		req.EndDate.Format(utils.DateLayout),
		req.TotalDays,
		req.BusinessDays,
		req.Reason,
		req.Status,
		nullString(req.FinalApproverID),
		req.ManualOverride,
		nullTime(req.DecidedAt),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (r *RequestRepository) Get(ctx context.Context, id string) (*entity.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE id = ?`
	req, err := scanRequest(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrRequestNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// GetForUpdate must run inside a transaction. Transactions begin with
// BEGIN IMMEDIATE, so the write lock is already held by the time it reads.
func (r *RequestRepository) GetForUpdate(ctx context.Context, id string) (*entity.LeaveRequest, error) {
	if !sqlite.InTx(ctx) {
		return nil, fmt.Errorf("get for update: no transaction in context")
	}
	return r.Get(ctx, id)
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status entity.Status, approverID string, manualOverride bool, decidedAt time.Time) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%w: status %q is not terminal", entity.ErrInvalidInput, status)
	}

	query := `
		UPDATE leave_requests
		SET status = ?, final_approver_id = ?, manual_override = ?, decided_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`
	exec := sqlite.Executor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, status, nullString(approverID), manualOverride, decidedAt, decidedAt, id)
	if err != nil {
		r.logger.Error("Failed to update request status", zap.String("request_id", id), zap.Error(err))
		return fmt.Errorf("failed to update request status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var current string
	err = exec.QueryRowContext(ctx, `SELECT status FROM leave_requests WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrRequestNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read request status: %w", err)
	}
	return fmt.Errorf("%w: request %s is %s", entity.ErrAlreadyDecided, id, current)
}

func (r *RequestRepository) ListForViewer(ctx context.Context, employeeID string, scope hierarchy.Scope) ([]*entity.LeaveRequest, error) {
	var (
		where string
		args  []interface{}
	)
	switch {
	case scope.All:
	case len(scope.Roles) == 0:
		where = `WHERE employee_id = ?`
		args = []interface{}{employeeID}
	default:
		where = `WHERE employee_id = ? OR employee_role IN (` + placeholders(len(scope.Roles)) + `)`
		args = append(args, employeeID)
		for _, role := range scope.Roles {
			args = append(args, role)
		}
	}

	query := `SELECT ` + requestColumns + ` FROM leave_requests ` + where + ` ORDER BY created_at DESC, rowid DESC`
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	out := []*entity.LeaveRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.LeaveRequest, error) {
	var (
		req           entity.LeaveRequest
		start, end    string
		finalApprover sql.NullString
		decidedAt     sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&req.EmployeeID,
		&req.EmployeeRole,
		&req.Type,
		&start,
		&end,
		&req.TotalDays,
		&req.BusinessDays,
		&req.Reason,
		&req.Status,
		&finalApprover,
		&req.ManualOverride,
		&decidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if req.StartDate, err = utils.ParseDate(start); err != nil {
		return nil, err
	}
	if req.EndDate, err = utils.ParseDate(end); err != nil {
		return nil, err
	}
	req.FinalApproverID = finalApprover.String
	if decidedAt.Valid {
		t := decidedAt.Time
		req.DecidedAt = &t
	}
	return &req, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
