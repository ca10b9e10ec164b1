// Package container provides dependency injection and lifecycle management
// for the leave approval service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Workflow WorkflowConfig
	Metrics  MetricsConfig

	// Employees are upserted into the directory on start
	Employees []*entity.Employee
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// BusyTimeout bounds how long a writer waits for the write lock
	BusyTimeout time.Duration
}

// WorkflowConfig holds resolved approval settings.
type WorkflowConfig struct {
	Hierarchy           hierarchy.Table
	Visibility          hierarchy.VisibilityRules
	AllVisibleRoles     []string
	OverrideRoles       []string
	AllowStepRedecision bool
	Holidays            []time.Time
}

// MetricsConfig toggles the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns a Config with the built-in hierarchy and visibility.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/leave.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Workflow: WorkflowConfig{
			Hierarchy:       hierarchy.DefaultTable(),
			Visibility:      hierarchy.DefaultVisibility(),
			AllVisibleRoles: hierarchy.DefaultAllVisible(),
			OverrideRoles:   hierarchy.DefaultAllVisible(),
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Workflow.Hierarchy == nil {
		return fmt.Errorf("workflow.hierarchy is required")
	}
	for i, emp := range c.Employees {
		if emp == nil || emp.ID == "" {
			return fmt.Errorf("employees[%d]: id is required", i)
		}
	}
	return nil
}
