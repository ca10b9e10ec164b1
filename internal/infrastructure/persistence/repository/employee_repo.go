package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/internal/domain/idgen"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/sqlite"
)

// EmployeeRepository stores the local employee directory.
// It implements both port.EmployeeRepository and port.Directory.
type EmployeeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *sql.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

// Upsert inserts or replaces name and role. Roles are stored normalized.
func (r *EmployeeRepository) Upsert(ctx context.Context, emp *entity.Employee) error {
	if strings.TrimSpace(emp.ID) == "" {
		return fmt.Errorf("%w: employee id is required", entity.ErrInvalidInput)
	}
	emp.Role = hierarchy.Normalize(emp.Role)
	now := idgen.Now()

	query := `
		INSERT INTO employees (id, display_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			role = excluded.role,
			updated_at = excluded.updated_at
	`
	if _, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, emp.ID, emp.DisplayName, emp.Role, now, now); err != nil {
		r.logger.Error("Failed to upsert employee", zap.String("employee_id", emp.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	emp.UpdatedAt = now
	return nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*entity.Employee, error) {
	query := `SELECT id, display_name, role, created_at, updated_at FROM employees WHERE id = ?`
	var emp entity.Employee
	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&emp.ID, &emp.DisplayName, &emp.Role, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &emp, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]*entity.Employee, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT id, display_name, role, created_at, updated_at FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	out := []*entity.Employee{}
	for rows.Next() {
		var emp entity.Employee
		if err := rows.Scan(&emp.ID, &emp.DisplayName, &emp.Role, &emp.CreatedAt, &emp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, &emp)
	}
	return out, rows.Err()
}

// GetEmployeeRole implements port.Directory
func (r *EmployeeRepository) GetEmployeeRole(ctx context.Context, employeeID string) (string, error) {
	emp, err := r.GetByID(ctx, employeeID)
	if err != nil {
		return "", err
	}
	return emp.Role, nil
}

// GetDisplayName implements port.Directory; unknown employees have no name
func (r *EmployeeRepository) GetDisplayName(ctx context.Context, employeeID string) (string, error) {
	emp, err := r.GetByID(ctx, employeeID)
	if errors.Is(err, entity.ErrEmployeeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return emp.DisplayName, nil
}

var (
	_ port.EmployeeRepository = (*EmployeeRepository)(nil)
	_ port.Directory          = (*EmployeeRepository)(nil)
)
