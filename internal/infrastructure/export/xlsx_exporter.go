// Package export renders request lists as spreadsheets.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/pkg/utils"
)

// SheetName is the worksheet holding the request rows
const SheetName = "Requests"

// Headers are the column titles, in column order
var Headers = []string{
	"Request ID", "Employee ID", "Employee", "Role", "Type",
	"Start", "End", "Total Days", "Business Days", "Status",
	"Required Roles", "Completed Roles", "Next Actor", "Final Approver",
	"Manual Override", "Submitted At",
}

// XLSXExporter implements port.Exporter with excelize
type XLSXExporter struct {
	logger *zap.Logger
}

// NewXLSXExporter creates a new spreadsheet exporter
func NewXLSXExporter(logger *zap.Logger) *XLSXExporter {
	return &XLSXExporter{logger: logger}
}

func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *XLSXExporter) Write(ctx context.Context, w io.Writer, rows []port.ExportRow) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := e.setRow(f, 1, toCells(Headers)); err != nil {
		return err
	}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.setRow(f, i+2, cells(row)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	e.logger.Debug("Workbook written", zap.Int("rows", len(rows)))
	return nil
}

func (e *XLSXExporter) setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to set row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func cells(row port.ExportRow) []interface{} {
	r := row.Request
	manual := "no"
	if r.ManualOverride {
		manual = "yes"
	}
	return []interface{}{
		r.ID,
		r.EmployeeID,
		row.EmployeeName,
		r.EmployeeRole,
		string(r.Type),
		r.StartDate.Format(utils.DateLayout),
		r.EndDate.Format(utils.DateLayout),
		r.TotalDays,
		r.BusinessDays,
		r.Status.String(),
		strings.Join(row.RequiredRoles, " > "),
		strings.Join(row.Completed, ", "),
		row.NextActorRole,
		r.FinalApproverID,
		manual,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

var _ port.Exporter = (*XLSXExporter)(nil)
