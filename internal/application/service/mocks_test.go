package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/event"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
)

// memStore is an in-memory request, step and history store
type memStore struct {
	mu       sync.Mutex
	requests map[string]*entity.LeaveRequest
	steps    map[string][]*entity.ApprovalStep
	history  []*entity.ApprovalHistory

	updateStatusCalls int
	lastManual        bool
	listScope         hierarchy.Scope
}

func newMemStore() *memStore {
	return &memStore{
		requests: make(map[string]*entity.LeaveRequest),
		steps:    make(map[string][]*entity.ApprovalStep),
	}
}

func (m *memStore) Create(ctx context.Context, req *entity.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*entity.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrRequestNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, id string) (*entity.LeaveRequest, error) {
	return m.Get(ctx, id)
}

func (m *memStore) UpdateStatus(ctx context.Context, id string, status entity.Status, approverID string, manual bool, decidedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return entity.ErrRequestNotFound
	}
	if r.Status != entity.StatusPending {
		return entity.ErrAlreadyDecided
	}
	r.Status = status
	r.FinalApproverID = approverID
	r.ManualOverride = manual
	r.DecidedAt = &decidedAt
	m.updateStatusCalls++
	m.lastManual = manual
	return nil
}

func (m *memStore) ListForViewer(ctx context.Context, employeeID string, scope hierarchy.Scope) ([]*entity.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listScope = scope
	roles := make(map[string]bool)
	for _, r := range scope.Roles {
		roles[r] = true
	}
	var out []*entity.LeaveRequest
	for _, r := range m.requests {
		if scope.All || r.EmployeeID == employeeID || roles[r.EmployeeRole] {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) CreateChain(ctx context.Context, requestID string, roles []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, role := range roles {
		m.steps[requestID] = append(m.steps[requestID], &entity.ApprovalStep{
			ID:            int64(len(m.steps[requestID]) + 1),
			RequestID:     requestID,
			Role:          role,
			SequenceIndex: i,
			Action:        entity.ActionNone,
			Mode:          entity.ModeNormal,
		})
	}
	return nil
}

func (m *memStore) RecordOutcome(ctx context.Context, requestID, role string, o entity.Outcome) (*entity.ApprovalStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.steps[requestID] {
		if st.Role == role {
			decided := o.DecidedAt
			st.ApproverID = o.ApproverID
			st.Action = o.Action
			st.Mode = o.Mode
			st.ManualReason = o.ManualReason
			st.DecidedAt = &decided
			cp := *st
			return &cp, nil
		}
	}
	return nil, entity.ErrStepNotFound
}

func (m *memStore) ListSteps(ctx context.Context, requestID string) ([]*entity.ApprovalStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.ApprovalStep, 0, len(m.steps[requestID]))
	for _, st := range m.steps[requestID] {
		cp := *st
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) ListStepsForRequests(ctx context.Context, ids []string) (map[string][]*entity.ApprovalStep, error) {
	out := make(map[string][]*entity.ApprovalStep, len(ids))
	for _, id := range ids {
		steps, _ := m.ListSteps(ctx, id)
		out[id] = steps
	}
	return out, nil
}

func (m *memStore) historyRepo() *memHistory { return &memHistory{store: m} }

type memHistory struct{ store *memStore }

func (h *memHistory) Create(ctx context.Context, entry *entity.ApprovalHistory) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	cp := *entry
	cp.ID = int64(len(h.store.history) + 1)
	h.store.history = append(h.store.history, &cp)
	return nil
}

func (h *memHistory) ListByRequestID(ctx context.Context, requestID string) ([]*entity.ApprovalHistory, error) {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	var out []*entity.ApprovalHistory
	for _, e := range h.store.history {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockDirectory struct {
	roles map[string]string
	names map[string]string

	getRoleFunc func(ctx context.Context, id string) (string, error)
	getNameFunc func(ctx context.Context, id string) (string, error)
}

func (m *mockDirectory) GetEmployeeRole(ctx context.Context, id string) (string, error) {
	if m.getRoleFunc != nil {
		return m.getRoleFunc(ctx, id)
	}
	role, ok := m.roles[id]
	if !ok {
		return "", entity.ErrEmployeeNotFound
	}
	return role, nil
}

func (m *mockDirectory) GetDisplayName(ctx context.Context, id string) (string, error) {
	if m.getNameFunc != nil {
		return m.getNameFunc(ctx, id)
	}
	return m.names[id], nil
}

type weekdayCounter struct{}

func (weekdayCounter) BusinessDays(start, end time.Time) int {
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			n++
		}
	}
	return n
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) DispatchAsync(ctx context.Context, events ...*event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
}

func (m *mockPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockNotifier struct {
	sendFunc func(ctx context.Context, n port.Notification) error
	sent     []port.Notification
}

func (m *mockNotifier) Send(ctx context.Context, n port.Notification) error {
	m.sent = append(m.sent, n)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, n)
	}
	return nil
}

type mockExporter struct {
	rows []port.ExportRow
	err  error
}

func (m *mockExporter) Write(ctx context.Context, w io.Writer, rows []port.ExportRow) error {
	m.rows = rows
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "ok")
	return err
}

func (m *mockExporter) ContentType() string { return "text/plain" }
