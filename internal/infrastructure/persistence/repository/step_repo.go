package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/idgen"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/sqlite"
)

// batchSize bounds the number of ids bound into one IN clause
const batchSize = 500

// StepRepository implements port.StepRepository
type StepRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStepRepository creates a new approval step repository
func NewStepRepository(db *sql.DB, logger *zap.Logger) port.StepRepository {
	return &StepRepository{db: db, logger: logger}
}

const stepColumns = `
	id, request_id, role, sequence_index, approver_id, decided_at,
	action, mode, manual_reason, created_at, updated_at`

// CreateChain inserts the chain in order. Called in the same transaction
// that creates the request.
func (r *StepRepository) CreateChain(ctx context.Context, requestID string, roles []string) error {
	query := `
		INSERT INTO approval_steps (request_id, role, sequence_index, action, mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	exec := sqlite.Executor(ctx, r.db)
	now := idgen.Now()
	for i, role := range roles {
		if _, err := exec.ExecContext(ctx, query, requestID, role, i, entity.ActionNone, entity.ModeNormal, now, now); err != nil {
			r.logger.Error("Failed to create approval step",
				zap.String("request_id", requestID),
				zap.String("role", role),
				zap.Error(err),
			)
			return fmt.Errorf("failed to create step %s: %w", role, err)
		}
	}
	return nil
}

func (r *StepRepository) RecordOutcome(ctx context.Context, requestID, role string, outcome entity.Outcome) (*entity.ApprovalStep, error) {
	query := `
		UPDATE approval_steps
		SET approver_id = ?, action = ?, mode = ?, manual_reason = ?, decided_at = ?, updated_at = ?
		WHERE request_id = ? AND role = ?
	`
	exec := sqlite.Executor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		outcome.ApproverID,
		outcome.Action,
		outcome.Mode,
		nullString(outcome.ManualReason),
		outcome.DecidedAt,
		outcome.DecidedAt,
		requestID,
		role,
	)
	if err != nil {
		r.logger.Error("Failed to record outcome", zap.String("request_id", requestID), zap.String("role", role), zap.Error(err))
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: request %s role %s", entity.ErrStepNotFound, requestID, role)
	}

	query = `SELECT ` + stepColumns + ` FROM approval_steps WHERE request_id = ? AND role = ?`
	step, err := scanStep(exec.QueryRowContext(ctx, query, requestID, role))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: request %s role %s", entity.ErrStepNotFound, requestID, role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read step: %w", err)
	}
	return step, nil
}

func (r *StepRepository) ListSteps(ctx context.Context, requestID string) ([]*entity.ApprovalStep, error) {
	query := `SELECT ` + stepColumns + ` FROM approval_steps WHERE request_id = ? ORDER BY sequence_index`
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	steps := []*entity.ApprovalStep{}
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// ListStepsForRequests returns steps keyed by request id, each ordered by sequence_index
func (r *StepRepository) ListStepsForRequests(ctx context.Context, requestIDs []string) (map[string][]*entity.ApprovalStep, error) {
	out := make(map[string][]*entity.ApprovalStep, len(requestIDs))
	exec := sqlite.Executor(ctx, r.db)

	for start := 0; start < len(requestIDs); start += batchSize {
		end := start + batchSize
		if end > len(requestIDs) {
			end = len(requestIDs)
		}
		batch := requestIDs[start:end]

		args := make([]interface{}, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		query := `SELECT ` + stepColumns + ` FROM approval_steps
			WHERE request_id IN (` + placeholders(len(batch)) + `)
			ORDER BY request_id, sequence_index`

		if err := r.collect(ctx, exec, query, args, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *StepRepository) collect(ctx context.Context, exec sqlite.QueryExecutor, query string, args []interface{}, out map[string][]*entity.ApprovalStep) error {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}
		out[step.RequestID] = append(out[step.RequestID], step)
	}
	return rows.Err()
}

func scanStep(row rowScanner) (*entity.ApprovalStep, error) {
	var (
		step       entity.ApprovalStep
		approverID sql.NullString
		decidedAt  sql.NullTime
		reason     sql.NullString
	)
	err := row.Scan(
		&step.ID,
		&step.RequestID,
		&step.Role,
		&step.SequenceIndex,
		&approverID,
		&decidedAt,
		&step.Action,
		&step.Mode,
		&reason,
		&step.CreatedAt,
		&step.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	step.ApproverID = approverID.String
	step.ManualReason = reason.String
	if decidedAt.Valid {
		t := decidedAt.Time
		step.DecidedAt = &t
	}
	return &step, nil
}
