package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/leave-approval/internal/application/service"
	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/pkg/utils"
)

// Identity headers set by the upstream authentication proxy
const (
	HeaderEmployeeID   = "X-Employee-ID"
	HeaderEmployeeRole = "X-Employee-Role"
)

// retryAfterSeconds is sent with 503 responses on storage contention
const retryAfterSeconds = "1"

// exportFilename is the attachment name of spreadsheet exports
const exportFilename = "leave-requests.xlsx"

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// SubmitRequest is the body of POST /api/requests
type SubmitRequest struct {
	Type      string `json:"type" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

// SubmitResponse carries the new request ID
type SubmitResponse struct {
	ID string `json:"id"`
}

// ActRequest is the body of POST /api/requests/:id/actions
type ActRequest struct {
	Action       string `json:"action" binding:"required"`
	Mode         string `json:"mode"`
	ManualReason string `json:"manual_reason"`
}

// ActResponse carries the status after the action
type ActResponse struct {
	RequestID string        `json:"request_id"`
	Status    entity.Status `json:"status"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.services.Health != nil {
		health := h.services.Health.Health(c.Request.Context())
		response.Components = health.Components
		if !health.Overall {
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	employeeID, ok := requireHeader(c, HeaderEmployeeID)
	if !ok {
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	start, err := utils.ParseDate(req.StartDate)
	if err != nil {
		badRequest(c, "start_date: "+err.Error())
		return
	}
	end, err := utils.ParseDate(req.EndDate)
	if err != nil {
		badRequest(c, "end_date: "+err.Error())
		return
	}

	id, err := h.services.Workflow.Submit(c.Request.Context(), service.SubmitInput{
		EmployeeID: employeeID,
		Type:       req.Type,
		Start:      start,
		End:        end,
		Reason:     req.Reason,
	})
	if err != nil {
		h.writeError(c, "Failed to submit request", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    SubmitResponse{ID: id},
	})
}

// ActOnRequest handles POST /api/requests/:id/actions
func (h *Handlers) ActOnRequest(c *gin.Context) {
	approverID, ok := requireHeader(c, HeaderEmployeeID)
	if !ok {
		return
	}
	role, ok := requireHeader(c, HeaderEmployeeRole)
	if !ok {
		return
	}

	var req ActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	requestID := c.Param("id")
	status, err := h.services.Workflow.Act(c.Request.Context(), service.ActInput{
		RequestID:    requestID,
		Role:         role,
		ApproverID:   approverID,
		Action:       entity.ParseAction(req.Action),
		Mode:         entity.ParseMode(req.Mode),
		ManualReason: req.ManualReason,
	})
	if err != nil {
		h.writeError(c, "Failed to act on request", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    ActResponse{RequestID: requestID, Status: status},
	})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	view, err := h.services.View.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get request", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    view,
	})
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	history, err := h.services.View.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "Failed to get history", err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	viewerID, ok := requireHeader(c, HeaderEmployeeID)
	if !ok {
		return
	}

	list, err := h.services.View.ListForViewer(c.Request.Context(), viewerID, c.GetHeader(HeaderEmployeeRole))
	if err != nil {
		h.writeError(c, "Failed to list requests", err)
		return
	}
	if list == nil {
		list = []*service.EnrichedRequest{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    list,
	})
}

// ExportRequests handles GET /api/requests/export
func (h *Handlers) ExportRequests(c *gin.Context) {
	viewerID, ok := requireHeader(c, HeaderEmployeeID)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.services.Export.Export(c.Request.Context(), &buf, viewerID, c.GetHeader(HeaderEmployeeRole)); err != nil {
		h.writeError(c, "Failed to export requests", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	c.Data(http.StatusOK, h.services.Export.ContentType(), buf.Bytes())
}

// writeError maps domain errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "path", c.Request.URL.Path)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", retryAfterSeconds)
	}

	text := err.Error()
	if status == http.StatusInternalServerError {
		text = "internal error"
	}
	c.JSON(status, Response{
		Success: false,
		Error:   text,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrStepNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrAlreadyDecided), errors.Is(err, entity.ErrStepAlreadyDecided):
		return http.StatusConflict
	case errors.Is(err, entity.ErrStorageConflict):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func requireHeader(c *gin.Context, name string) (string, bool) {
	v := strings.TrimSpace(c.GetHeader(name))
	if v == "" {
		badRequest(c, "missing "+name+" header")
		return "", false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
	})
}
