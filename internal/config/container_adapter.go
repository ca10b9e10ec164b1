package config

import (
	"fmt"

	"github.com/garyjia/leave-approval/internal/container"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config,
// loading the hierarchy file and parsing holidays on the way.
func (c *Config) ToContainerConfig() (*container.Config, error) {
	table, err := c.Workflow.HierarchyTable()
	if err != nil {
		return nil, err
	}

	holidays, err := utils.ParseDates(c.Workflow.Holidays)
	if err != nil {
		return nil, fmt.Errorf("workflow.holidays: %w", err)
	}

	visibility := hierarchy.DefaultVisibility()
	if len(c.Workflow.Visibility) > 0 {
		visibility = hierarchy.VisibilityRules(c.Workflow.Visibility)
	}

	employees := make([]*entity.Employee, 0, len(c.Employees))
	for _, e := range c.Employees {
		employees = append(employees, &entity.Employee{
			ID:          e.ID,
			DisplayName: e.Name,
			Role:        e.Role,
		})
	}

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Workflow: container.WorkflowConfig{
			Hierarchy:           table,
			Visibility:          visibility,
			AllVisibleRoles:     c.Workflow.AllVisibleRoles,
			OverrideRoles:       c.Workflow.OverrideRoles,
			AllowStepRedecision: c.Workflow.AllowStepRedecision,
			Holidays:            holidays,
		},
		Metrics: container.MetricsConfig{
			Enabled: c.Metrics.Enabled,
		},
		Employees: employees,
	}, nil
}

// HierarchyTable returns the configured approval table: the hierarchy file
// when set, else the inline map, else the built-in table.
func (w WorkflowConfig) HierarchyTable() (hierarchy.Table, error) {
	if w.HierarchyFile != "" {
		table, err := hierarchy.LoadTableFile(w.HierarchyFile)
		if err != nil {
			return nil, fmt.Errorf("workflow.hierarchy_file: %w", err)
		}
		return table, nil
	}
	if len(w.Hierarchy) > 0 {
		table := make(hierarchy.Table, len(w.Hierarchy))
		for role, chain := range w.Hierarchy {
			if chain == nil {
				chain = []string{}
			}
			table[role] = chain
		}
		return table, nil
	}
	return hierarchy.DefaultTable(), nil
}
