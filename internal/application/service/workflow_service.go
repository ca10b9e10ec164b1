package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/event"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/internal/domain/idgen"
	"github.com/garyjia/leave-approval/internal/domain/workflow"
	"github.com/garyjia/leave-approval/pkg/utils"
)

// MaxReasonLength is the maximum reason length in characters after sanitizing
const MaxReasonLength = 2000

// SubmitInput carries a new leave application
type SubmitInput struct {
	EmployeeID string
	Type       string
	Start      time.Time
	End        time.Time
	Reason     string
}

// ActInput carries one approval or rejection by an actor
type ActInput struct {
	RequestID    string
	Role         string
	ApproverID   string
	Action       entity.Action
	Mode         entity.Mode
	ManualReason string
}

// WorkflowOptions tunes the engine's guards
type WorkflowOptions struct {
	// OverrideRoles may act manually on requests whose chain does not include them
	OverrideRoles []string
	// AllowStepRedecision lets an actor overwrite an already decided step
	AllowStepRedecision bool
}

// Publisher delivers events after the transaction that produced them commits
type Publisher interface {
	DispatchAsync(ctx context.Context, events ...*event.Event)
}

// WorkflowService creates requests and processes actions on them
type WorkflowService interface {
	Submit(ctx context.Context, in SubmitInput) (string, error)
	Act(ctx context.Context, in ActInput) (entity.Status, error)
}

// WorkflowDeps groups the collaborators of the workflow service
type WorkflowDeps struct {
	Requests  port.RequestRepository
	Steps     port.StepRepository
	History   port.HistoryRepository
	TxManager port.TransactionManager
	Resolver  *hierarchy.Resolver
	Directory port.Directory
	Days      port.BusinessDayCounter
	Publisher Publisher
	Logger    Logger
}

type workflowServiceImpl struct {
	requests      port.RequestRepository
	steps         port.StepRepository
	history       port.HistoryRepository
	txManager     port.TransactionManager
	resolver      *hierarchy.Resolver
	directory     port.Directory
	days          port.BusinessDayCounter
	publisher     Publisher
	logger        Logger
	tracer        trace.Tracer
	overrideRoles map[string]bool
	redecide      bool
}

// NewWorkflowService creates a new WorkflowService
func NewWorkflowService(deps WorkflowDeps, opts WorkflowOptions) WorkflowService {
	override := make(map[string]bool, len(opts.OverrideRoles))
	for _, r := range opts.OverrideRoles {
		override[hierarchy.Normalize(r)] = true
	}
	return &workflowServiceImpl{
		requests:      deps.Requests,
		steps:         deps.Steps,
		history:       deps.History,
		txManager:     deps.TxManager,
		resolver:      deps.Resolver,
		directory:     deps.Directory,
		days:          deps.Days,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
		tracer:        otel.Tracer("leave-approval/internal/application/service/workflow"),
		overrideRoles: override,
		redecide:      opts.AllowStepRedecision,
	}
}

// Submit validates the application, resolves the approver chain of the
// owner's current role and stores request, chain and history atomically.
func (s *workflowServiceImpl) Submit(ctx context.Context, in SubmitInput) (string, error) {
	ctx, span := s.tracer.Start(ctx, "WorkflowService.Submit")
	defer span.End()

	req, err := s.newRequest(ctx, in)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}
	chain := s.resolver.Resolve(req.EmployeeRole)
	span.SetAttributes(
		attribute.String("request_id", req.ID),
		attribute.String("employee_role", req.EmployeeRole),
		attribute.Int("chain_length", len(chain)),
	)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := s.steps.CreateChain(txCtx, req.ID, chain); err != nil {
			return fmt.Errorf("create chain: %w", err)
		}
		history := &entity.ApprovalHistory{
			RequestID:  req.ID,
			ActorID:    req.EmployeeID,
			ActorRole:  req.EmployeeRole,
			ActionType: entity.HistorySubmit,
			Comment:    strings.Join(chain, ","),
			NewStatus:  entity.StatusPending,
			Timestamp:  req.CreatedAt,
		}
		if err := s.history.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.Error("Failed to submit request", "error", err, "employee_id", req.EmployeeID)
		return "", err
	}

	if len(chain) == 0 {
		s.logger.Warn("Request has no approval chain and needs manual resolution",
			"request_id", req.ID,
			"employee_role", req.EmployeeRole,
		)
	}
	s.logger.Info("Leave request submitted",
		"request_id", req.ID,
		"employee_id", req.EmployeeID,
		"type", req.Type,
		"business_days", req.BusinessDays,
		"chain", chain,
	)

	s.publish(ctx, event.NewEvent(event.TypeRequestSubmitted, req.ID, map[string]interface{}{
		event.KeyEmployeeID: req.EmployeeID,
		event.KeyRole:       req.EmployeeRole,
		event.KeyDays:       req.BusinessDays,
	}))
	return req.ID, nil
}

func (s *workflowServiceImpl) newRequest(ctx context.Context, in SubmitInput) (*entity.LeaveRequest, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employee id is required", entity.ErrInvalidInput)
	}
	leaveType, ok := entity.ParseLeaveType(in.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown leave type %q", entity.ErrInvalidInput, in.Type)
	}
	dates := entity.DateRange{Start: in.Start, End: in.End}
	if !dates.Valid() {
		return nil, fmt.Errorf("%w: start and end dates are required and start must not be after end", entity.ErrInvalidInput)
	}
	if !utf8.ValidString(in.Reason) {
		return nil, fmt.Errorf("%w: reason is not valid UTF-8", entity.ErrInvalidInput)
	}
	reason := utils.SanitizeString(strings.TrimSpace(in.Reason))
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", entity.ErrInvalidInput, MaxReasonLength)
	}

	role, err := s.directory.GetEmployeeRole(ctx, employeeID)
	if errors.Is(err, entity.ErrEmployeeNotFound) {
		return nil, fmt.Errorf("%w: unknown employee %q", entity.ErrInvalidInput, employeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup employee role: %w", err)
	}

	now := idgen.Now()
	return &entity.LeaveRequest{
		ID:           idgen.New(),
		EmployeeID:   employeeID,
		EmployeeRole: hierarchy.Normalize(role),
		Type:         leaveType,
		StartDate:    utils.DateOnly(in.Start),
		EndDate:      utils.DateOnly(in.End),
		TotalDays:    dates.Days(),
		BusinessDays: s.days.BusinessDays(in.Start, in.End),
		Reason:       reason,
		Status:       entity.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func validateAct(in ActInput) error {
	if !in.Action.IsDecision() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidAction, in.Action)
	}
	if !in.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", entity.ErrInvalidInput, in.Mode)
	}
	if strings.TrimSpace(in.RequestID) == "" {
		return fmt.Errorf("%w: request id is required", entity.ErrInvalidInput)
	}
	if strings.TrimSpace(in.ApproverID) == "" {
		return fmt.Errorf("%w: approver id is required", entity.ErrInvalidInput)
	}
	if in.Mode == entity.ModeManual && strings.TrimSpace(in.ManualReason) == "" {
		return fmt.Errorf("%w: manual actions require a reason", entity.ErrInvalidInput)
	}
	return nil
}

// Act records one outcome and recomputes the request status in a single
// transaction. The transaction holds the store's write lock, so concurrent
// acts on the same request see each other's committed steps.
func (s *workflowServiceImpl) Act(ctx context.Context, in ActInput) (entity.Status, error) {
	ctx, span := s.tracer.Start(ctx, "WorkflowService.Act")
	defer span.End()

	if err := validateAct(in); err != nil {
		recordSpanError(span, err)
		return "", err
	}

	role := hierarchy.Normalize(in.Role)
	acted := workflow.Acted{Action: in.Action, Mode: in.Mode}
	span.SetAttributes(
		attribute.String("request_id", in.RequestID),
		attribute.String("role", role),
		attribute.String("action", in.Action.String()),
		attribute.String("mode", in.Mode.String()),
	)

	var (
		req      *entity.LeaveRequest
		result   entity.Status
		override bool
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.requests.GetForUpdate(txCtx, in.RequestID)
		if err != nil {
			return err
		}

		machine, err := workflow.NewRequestMachine(workflow.FromStatus(req.Status))
		if err != nil {
			return fmt.Errorf("request %s: %w", req.ID, err)
		}
		if !machine.CanFire(workflow.TriggerRecord) {
			return fmt.Errorf("%w: request %s is %s", entity.ErrAlreadyDecided, req.ID, req.Status)
		}

		steps, err := s.steps.ListSteps(txCtx, req.ID)
		if err != nil {
			return fmt.Errorf("list steps: %w", err)
		}

		now := idgen.Now()
		idx := stepIndex(steps, role)
		switch {
		case idx < 0 && in.Mode == entity.ModeManual && s.overrideRoles[role]:
			override = true
		case idx < 0:
			return fmt.Errorf("%w: role %q is not in the chain of request %s", entity.ErrStepNotFound, role, req.ID)
		case steps[idx].IsDecided() && !s.redecide:
			return fmt.Errorf("%w: role %q already %s request %s", entity.ErrStepAlreadyDecided, role, steps[idx].Action, req.ID)
		default:
			updated, err := s.steps.RecordOutcome(txCtx, req.ID, role, entity.Outcome{
				ApproverID:   in.ApproverID,
				Action:       in.Action,
				Mode:         in.Mode,
				ManualReason: in.ManualReason,
				DecidedAt:    now,
			})
			if err != nil {
				return fmt.Errorf("record outcome: %w", err)
			}
			steps[idx] = updated
		}

		result = workflow.Aggregate(steps, acted)
		if err := machine.Fire(txCtx, workflow.TriggerFor(acted, result)); err != nil {
			return fmt.Errorf("%w: %v", entity.ErrAlreadyDecided, err)
		}

		if result.IsTerminal() {
			if err := s.requests.UpdateStatus(txCtx, req.ID, result, in.ApproverID, in.Mode == entity.ModeManual, now); err != nil {
				return fmt.Errorf("update status: %w", err)
			}
		}

		actionType := entity.HistoryAct
		if override {
			actionType = entity.HistoryOverride
		}
		history := &entity.ApprovalHistory{
			RequestID:      req.ID,
			ActorID:        in.ApproverID,
			ActorRole:      role,
			ActionType:     actionType,
			Action:         in.Action,
			Mode:           in.Mode,
			Comment:        in.ManualReason,
			PreviousStatus: req.Status,
			NewStatus:      result,
			Timestamp:      now,
		}
		if err := s.history.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.Error("Failed to process action",
			"error", err,
			"request_id", in.RequestID,
			"role", role,
			"action", in.Action,
		)
		return "", err
	}

	span.SetAttributes(attribute.String("status", result.String()))
	s.logger.Info("Action processed",
		"request_id", req.ID,
		"role", role,
		"approver_id", in.ApproverID,
		"action", in.Action,
		"mode", in.Mode,
		"override", override,
		"status", result,
	)

	s.publish(ctx, actedEvents(req, role, in, result)...)
	return result, nil
}

func actedEvents(req *entity.LeaveRequest, role string, in ActInput, result entity.Status) []*event.Event {
	payload := map[string]interface{}{
		event.KeyEmployeeID: req.EmployeeID,
		event.KeyApproverID: in.ApproverID,
		event.KeyRole:       role,
		event.KeyAction:     in.Action.String(),
		event.KeyMode:       in.Mode.String(),
		event.KeyStatus:     result.String(),
		event.KeyDays:       req.BusinessDays,
	}
	recorded := event.NewEvent(event.TypeRequestStepRecorded, req.ID, payload)
	events := []*event.Event{recorded}

	switch result {
	case entity.StatusApproved:
		events = append(events, event.NewEventWithCorrelation(event.TypeRequestApproved, req.ID, payload, recorded.CorrelationID))
	case entity.StatusRejected:
		events = append(events, event.NewEventWithCorrelation(event.TypeRequestRejected, req.ID, payload, recorded.CorrelationID))
	}
	return events
}

func (s *workflowServiceImpl) publish(ctx context.Context, events ...*event.Event) {
	if s.publisher == nil {
		return
	}
	s.publisher.DispatchAsync(ctx, events...)
}

func stepIndex(steps []*entity.ApprovalStep, role string) int {
	for i, st := range steps {
		if st.Role == role {
			return i
		}
	}
	return -1
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
