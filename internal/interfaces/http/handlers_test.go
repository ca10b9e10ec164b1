package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/leave-approval/internal/application/service"
	"github.com/garyjia/leave-approval/internal/container"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockWorkflow struct {
	submitFunc func(ctx context.Context, in service.SubmitInput) (string, error)
	actFunc    func(ctx context.Context, in service.ActInput) (entity.Status, error)
}

func (m *mockWorkflow) Submit(ctx context.Context, in service.SubmitInput) (string, error) {
	return m.submitFunc(ctx, in)
}

func (m *mockWorkflow) Act(ctx context.Context, in service.ActInput) (entity.Status, error) {
	return m.actFunc(ctx, in)
}

type mockView struct {
	getFunc     func(ctx context.Context, id string) (*service.EnrichedRequest, error)
	listFunc    func(ctx context.Context, viewerID, role string) ([]*service.EnrichedRequest, error)
	historyFunc func(ctx context.Context, id string) ([]*entity.ApprovalHistory, error)
}

func (m *mockView) Get(ctx context.Context, id string) (*service.EnrichedRequest, error) {
	return m.getFunc(ctx, id)
}

func (m *mockView) ListForViewer(ctx context.Context, viewerID, role string) ([]*service.EnrichedRequest, error) {
	return m.listFunc(ctx, viewerID, role)
}

func (m *mockView) History(ctx context.Context, id string) ([]*entity.ApprovalHistory, error) {
	return m.historyFunc(ctx, id)
}

type mockExport struct {
	exportFunc func(ctx context.Context, w io.Writer, viewerID, role string) error
}

func (m *mockExport) Export(ctx context.Context, w io.Writer, viewerID, role string) error {
	return m.exportFunc(ctx, w, viewerID, role)
}

func (m *mockExport) ContentType() string { return "application/test" }

type mockHealth struct {
	healthy bool
}

func (m *mockHealth) Health(ctx context.Context) *container.HealthStatus {
	return &container.HealthStatus{
		Overall: m.healthy,
		Components: map[string]container.ComponentHealth{
			"database": {Healthy: m.healthy},
		},
	}
}

func newTestServer(svc Services) *Server {
	return NewServer(DefaultServerConfig(), svc, nopLogger{})
}

func do(t *testing.T, s *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(Services{Health: &mockHealth{healthy: true}})
	w := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)

	s = newTestServer(Services{Health: &mockHealth{healthy: false}})
	w = do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubmitRequest(t *testing.T) {
	var got service.SubmitInput
	wf := &mockWorkflow{submitFunc: func(ctx context.Context, in service.SubmitInput) (string, error) {
		got = in
		return "req-1", nil
	}}
	s := newTestServer(Services{Workflow: wf})

	w := do(t, s, http.MethodPost, "/api/requests",
		`{"type":"vacation","start_date":"2028-01-03","end_date":"2028-01-07","reason":"trip"}`,
		map[string]string{HeaderEmployeeID: "emp-1"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"id": "req-1"}, resp.Data)
	assert.Equal(t, "emp-1", got.EmployeeID)
	assert.Equal(t, "vacation", got.Type)
	assert.Equal(t, time.Date(2028, 1, 3, 0, 0, 0, 0, time.UTC), got.Start)
	assert.Equal(t, time.Date(2028, 1, 7, 0, 0, 0, 0, time.UTC), got.End)
}

func TestSubmitRequest_BadInput(t *testing.T) {
	wf := &mockWorkflow{submitFunc: func(ctx context.Context, in service.SubmitInput) (string, error) {
		t.Fatal("service must not be called")
		return "", nil
	}}
	s := newTestServer(Services{Workflow: wf})
	id := map[string]string{HeaderEmployeeID: "emp-1"}

	tests := []struct {
		name    string
		body    string
		headers map[string]string
	}{
		{"missing identity", `{"type":"vacation","start_date":"2028-01-03","end_date":"2028-01-07"}`, nil},
		{"malformed json", `{"type":`, id},
		{"missing end date", `{"type":"vacation","start_date":"2028-01-03"}`, id},
		{"bad date", `{"type":"vacation","start_date":"03/01/2028","end_date":"2028-01-07"}`, id},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/requests", tt.body, tt.headers)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, decode(t, w).Success)
		})
	}
}

func TestActOnRequest(t *testing.T) {
	var got service.ActInput
	wf := &mockWorkflow{actFunc: func(ctx context.Context, in service.ActInput) (entity.Status, error) {
		got = in
		return entity.StatusPending, nil
	}}
	s := newTestServer(Services{Workflow: wf})

	w := do(t, s, http.MethodPost, "/api/requests/req-1/actions", `{"action":"approve"}`,
		map[string]string{HeaderEmployeeID: "mgr-1", HeaderEmployeeRole: "Gerente"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "mgr-1", got.ApproverID)
	assert.Equal(t, "Gerente", got.Role)
	assert.Equal(t, entity.ActionApproved, got.Action)
	assert.Equal(t, entity.ModeNormal, got.Mode)

	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
}

func TestActOnRequest_RequiresRole(t *testing.T) {
	s := newTestServer(Services{Workflow: &mockWorkflow{}})
	w := do(t, s, http.MethodPost, "/api/requests/req-1/actions", `{"action":"approve"}`,
		map[string]string{HeaderEmployeeID: "mgr-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActOnRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{fmt.Errorf("%w: bogus", entity.ErrInvalidAction), http.StatusBadRequest},
		{fmt.Errorf("%w: no approver", entity.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("get: %w", entity.ErrRequestNotFound), http.StatusNotFound},
		{entity.ErrStepNotFound, http.StatusUnprocessableEntity},
		{entity.ErrAlreadyDecided, http.StatusConflict},
		{entity.ErrStepAlreadyDecided, http.StatusConflict},
		{fmt.Errorf("commit: %w", entity.ErrStorageConflict), http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wf := &mockWorkflow{actFunc: func(ctx context.Context, in service.ActInput) (entity.Status, error) {
				return "", tt.err
			}}
			s := newTestServer(Services{Workflow: wf})
			w := do(t, s, http.MethodPost, "/api/requests/req-1/actions", `{"action":"reject"}`,
				map[string]string{HeaderEmployeeID: "mgr-1", HeaderEmployeeRole: "gerente"})

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal error", decode(t, w).Error)
			}
		})
	}
}

func TestGetRequest(t *testing.T) {
	next := "director"
	view := &mockView{getFunc: func(ctx context.Context, id string) (*service.EnrichedRequest, error) {
		if id != "req-1" {
			return nil, entity.ErrRequestNotFound
		}
		return &service.EnrichedRequest{
			LeaveRequest:  entity.LeaveRequest{ID: "req-1", Status: entity.StatusPending},
			EmployeeName:  "Ana",
			RequiredRoles: []string{"gerente", "director"},
			NextActorRole: &next,
		}, nil
	}}
	s := newTestServer(Services{View: view})

	w := do(t, s, http.MethodGet, "/api/requests/req-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "req-1", data["id"])
	assert.Equal(t, "Ana", data["employee_name"])
	assert.Equal(t, "director", data["next_actor_role"])

	w = do(t, s, http.MethodGet, "/api/requests/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory(t *testing.T) {
	view := &mockView{historyFunc: func(ctx context.Context, id string) ([]*entity.ApprovalHistory, error) {
		return []*entity.ApprovalHistory{{RequestID: id, ActionType: entity.HistorySubmit}}, nil
	}}
	s := newTestServer(Services{View: view})

	w := do(t, s, http.MethodGet, "/api/requests/req-1/history", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)
}

func TestListRequests(t *testing.T) {
	var gotViewer, gotRole string
	view := &mockView{listFunc: func(ctx context.Context, viewerID, role string) ([]*service.EnrichedRequest, error) {
		gotViewer, gotRole = viewerID, role
		return nil, nil
	}}
	s := newTestServer(Services{View: view})

	w := do(t, s, http.MethodGet, "/api/requests", "", map[string]string{
		HeaderEmployeeID:   "dir-1",
		HeaderEmployeeRole: "director",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dir-1", gotViewer)
	assert.Equal(t, "director", gotRole)
	assert.Equal(t, []interface{}{}, decode(t, w).Data)

	w = do(t, s, http.MethodGet, "/api/requests", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportRequests(t *testing.T) {
	exp := &mockExport{exportFunc: func(ctx context.Context, w io.Writer, viewerID, role string) error {
		_, err := io.WriteString(w, "sheet:"+viewerID)
		return err
	}}
	s := newTestServer(Services{Export: exp})

	w := do(t, s, http.MethodGet, "/api/requests/export", "", map[string]string{HeaderEmployeeID: "hr-1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/test", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), exportFilename)
	assert.Equal(t, "sheet:hr-1", w.Body.String())
}

func TestExportRequests_Failure(t *testing.T) {
	exp := &mockExport{exportFunc: func(ctx context.Context, w io.Writer, viewerID, role string) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("excel broke")
	}}
	s := newTestServer(Services{Export: exp})

	w := do(t, s, http.MethodGet, "/api/requests/export", "", map[string]string{HeaderEmployeeID: "hr-1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "partial")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	view := &mockView{getFunc: func(ctx context.Context, id string) (*service.EnrichedRequest, error) {
		return nil, entity.ErrRequestNotFound
	}}
	s := newTestServer(Services{View: view, Metrics: m})

	do(t, s, http.MethodGet, "/api/requests/x", "", nil)
	w := do(t, s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "leave_approval_api_requests_total")
	assert.Contains(t, w.Body.String(), `path="/api/requests/:id"`)
}
