package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/internal/domain/workflow"
)

// EnrichedRequest is a request annotated with its chain progress
type EnrichedRequest struct {
	entity.LeaveRequest
	EmployeeName   string                 `json:"employee_name"`
	Steps          []*entity.ApprovalStep `json:"steps"`
	RequiredRoles  []string               `json:"required_roles"`
	CompletedRoles []string               `json:"completed_roles"`
	NextActorRole  *string                `json:"next_actor_role"`
}

// ViewService assembles read models; it never changes state
type ViewService interface {
	Get(ctx context.Context, requestID string) (*EnrichedRequest, error)
	ListForViewer(ctx context.Context, viewerID, role string) ([]*EnrichedRequest, error)
	History(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error)
}

type viewServiceImpl struct {
	requests   port.RequestRepository
	steps      port.StepRepository
	history    port.HistoryRepository
	directory  port.Directory
	visibility *hierarchy.Visibility
	logger     Logger
	tracer     trace.Tracer
}

// NewViewService creates a new ViewService
func NewViewService(
	requests port.RequestRepository,
	steps port.StepRepository,
	history port.HistoryRepository,
	directory port.Directory,
	visibility *hierarchy.Visibility,
	logger Logger,
) ViewService {
	return &viewServiceImpl{
		requests:   requests,
		steps:      steps,
		history:    history,
		directory:  directory,
		visibility: visibility,
		logger:     logger,
		tracer:     otel.Tracer("leave-approval/internal/application/service/view"),
	}
}

func (s *viewServiceImpl) Get(ctx context.Context, requestID string) (*EnrichedRequest, error) {
	ctx, span := s.tracer.Start(ctx, "ViewService.Get")
	defer span.End()

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	steps, err := s.steps.ListSteps(ctx, req.ID)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return enrich(req, steps, s.displayName(ctx, req.EmployeeID)), nil
}

func (s *viewServiceImpl) ListForViewer(ctx context.Context, viewerID, role string) ([]*EnrichedRequest, error) {
	ctx, span := s.tracer.Start(ctx, "ViewService.ListForViewer")
	defer span.End()

	scope := s.visibility.Scope(hierarchy.Normalize(role))
	span.SetAttributes(
		attribute.String("viewer_id", viewerID),
		attribute.Bool("scope_all", scope.All),
	)

	reqs, err := s.requests.ListForViewer(ctx, viewerID, scope)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if len(reqs) == 0 {
		return []*EnrichedRequest{}, nil
	}

	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	stepsByRequest, err := s.steps.ListStepsForRequests(ctx, ids)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("list steps: %w", err)
	}

	names := make(map[string]string)
	out := make([]*EnrichedRequest, 0, len(reqs))
	for _, r := range reqs {
		name, ok := names[r.EmployeeID]
		if !ok {
			name = s.displayName(ctx, r.EmployeeID)
			names[r.EmployeeID] = name
		}
		out = append(out, enrich(r, stepsByRequest[r.ID], name))
	}
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

func (s *viewServiceImpl) History(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// displayName is presentation only; lookup failures yield ""
func (s *viewServiceImpl) displayName(ctx context.Context, employeeID string) string {
	name, err := s.directory.GetDisplayName(ctx, employeeID)
	if err != nil {
		s.logger.Warn("Display name lookup failed", "employee_id", employeeID, "error", err)
		return ""
	}
	return name
}

// enrich derives chain progress from the persisted steps. RequiredRoles is
// the Hierarchy Resolver output for the owner's role, captured in the steps
// at submission, so later table changes do not alter existing requests.
func enrich(req *entity.LeaveRequest, steps []*entity.ApprovalStep, name string) *EnrichedRequest {
	if steps == nil {
		steps = []*entity.ApprovalStep{}
	}
	required := make([]string, 0, len(steps))
	completed := make([]string, 0, len(steps))
	done := make(map[string]bool, len(steps))
	for _, st := range steps {
		required = append(required, st.Role)
		if st.IsDecided() {
			completed = append(completed, st.Role)
			done[st.Role] = true
		}
	}

	er := &EnrichedRequest{
		LeaveRequest:   *req,
		EmployeeName:   name,
		Steps:          steps,
		RequiredRoles:  required,
		CompletedRoles: completed,
	}
	if req.Status == entity.StatusPending {
		if next, ok := workflow.NextActor(required, done); ok {
			er.NextActorRole = &next
		}
	}
	return er
}
