package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/leave-approval/internal/application/port"
)

// ExportService writes the requests visible to a viewer as a spreadsheet
type ExportService interface {
	Export(ctx context.Context, w io.Writer, viewerID, role string) error
	ContentType() string
}

type exportServiceImpl struct {
	views    ViewService
	exporter port.Exporter
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(views ViewService, exporter port.Exporter, logger Logger) ExportService {
	return &exportServiceImpl{views: views, exporter: exporter, logger: logger}
}

func (s *exportServiceImpl) Export(ctx context.Context, w io.Writer, viewerID, role string) error {
	list, err := s.views.ListForViewer(ctx, viewerID, role)
	if err != nil {
		return err
	}

	rows := make([]port.ExportRow, 0, len(list))
	for _, er := range list {
		req := er.LeaveRequest
		row := port.ExportRow{
			Request:       &req,
			EmployeeName:  er.EmployeeName,
			RequiredRoles: er.RequiredRoles,
			Completed:     er.CompletedRoles,
		}
		if er.NextActorRole != nil {
			row.NextActorRole = *er.NextActorRole
		}
		rows = append(rows, row)
	}

	if err := s.exporter.Write(ctx, w, rows); err != nil {
		s.logger.Error("Failed to export requests", "error", err, "viewer_id", viewerID)
		return fmt.Errorf("write export: %w", err)
	}
	s.logger.Info("Requests exported", "viewer_id", viewerID, "rows", len(rows))
	return nil
}

func (s *exportServiceImpl) ContentType() string {
	return s.exporter.ContentType()
}
