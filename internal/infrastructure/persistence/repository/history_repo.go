package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, h *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			request_id, actor_id, actor_role, action_type, action, mode,
			comment, previous_status, new_status, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		h.RequestID,
		h.ActorID,
		h.ActorRole,
		h.ActionType,
		h.Action,
		h.Mode,
		h.Comment,
		h.PreviousStatus,
		h.NewStatus,
		h.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history", zap.String("request_id", h.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

// ListByRequestID returns entries oldest first
func (r *HistoryRepository) ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, request_id, actor_id, actor_role, action_type, action, mode,
			comment, previous_status, new_status, timestamp
		FROM approval_history
		WHERE request_id = ?
		ORDER BY id
	`
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []*entity.ApprovalHistory{}
	for rows.Next() {
		var h entity.ApprovalHistory
		if err := rows.Scan(
			&h.ID,
			&h.RequestID,
			&h.ActorID,
			&h.ActorRole,
			&h.ActionType,
			&h.Action,
			&h.Mode,
			&h.Comment,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
