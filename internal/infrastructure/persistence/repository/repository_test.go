package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/leave-approval/internal/domain/entity"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/leave-approval/pkg/database"
)

type testRepos struct {
	tx        *sqlite.DB
	requests  *RequestRepository
	steps     *StepRepository
	history   *HistoryRepository
	employees *EmployeeRepository
}

func setupRepos(t *testing.T) *testRepos {
	t.Helper()
	logger := zap.NewNop()
	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "repo.db"), MaxOpenConns: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).Run(context.Background()))

	return &testRepos{
		tx:        sqlite.NewDB(db.DB, logger),
		requests:  NewRequestRepository(db.DB, logger).(*RequestRepository),
		steps:     NewStepRepository(db.DB, logger).(*StepRepository),
		history:   NewHistoryRepository(db.DB, logger).(*HistoryRepository),
		employees: NewEmployeeRepository(db.DB, logger),
	}
}

func newRequest(id, owner, role string, created time.Time) *entity.LeaveRequest {
	return &entity.LeaveRequest{
		ID:           id,
		EmployeeID:   owner,
		EmployeeRole: role,
		Type:         entity.LeaveTypeVacation,
		StartDate:    time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2028, 1, 14, 0, 0, 0, 0, time.UTC),
		TotalDays:    5,
		BusinessDays: 5,
		Reason:       "trip",
		Status:       entity.StatusPending,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func (r *testRepos) createWithChain(t *testing.T, req *entity.LeaveRequest, chain ...string) {
	t.Helper()
	err := r.tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		if err := r.requests.Create(ctx, req); err != nil {
			return err
		}
		return r.steps.CreateChain(ctx, req.ID, chain)
	})
	require.NoError(t, err)
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	r := setupRepos(t)
	created := time.Date(2028, 1, 2, 9, 30, 0, 0, time.UTC)
	r.createWithChain(t, newRequest("r1", "emp-1", "colaborador", created), "gerente")

	got, err := r.requests.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "emp-1", got.EmployeeID)
	assert.Equal(t, "colaborador", got.EmployeeRole)
	assert.Equal(t, entity.LeaveTypeVacation, got.Type)
	assert.Equal(t, time.Date(2028, 1, 10, 0, 0, 0, 0, time.UTC), got.StartDate)
	assert.Equal(t, 5, got.TotalDays)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Nil(t, got.DecidedAt)
	assert.False(t, got.ManualOverride)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = r.requests.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrRequestNotFound)
}

func TestRequestRepository_GetForUpdateRequiresTx(t *testing.T) {
	r := setupRepos(t)
	r.createWithChain(t, newRequest("r1", "emp-1", "colaborador", time.Now()))

	_, err := r.requests.GetForUpdate(context.Background(), "r1")
	assert.Error(t, err)

	err = r.tx.WithTransaction(context.Background(), func(ctx context.Context) error {
		got, err := r.requests.GetForUpdate(ctx, "r1")
		if err == nil {
			assert.Equal(t, "r1", got.ID)
		}
		return err
	})
	require.NoError(t, err)
}

func TestRequestRepository_UpdateStatusOnlyOnce(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	r.createWithChain(t, newRequest("r1", "emp-1", "colaborador", time.Now()))
	decided := time.Date(2028, 1, 5, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.requests.UpdateStatus(ctx, "r1", entity.StatusApproved, "hr-1", true, decided))

	got, err := r.requests.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.Equal(t, "hr-1", got.FinalApproverID)
	assert.True(t, got.ManualOverride)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, decided.Equal(*got.DecidedAt))

	err = r.requests.UpdateStatus(ctx, "r1", entity.StatusRejected, "mgr-1", false, decided)
	assert.ErrorIs(t, err, entity.ErrAlreadyDecided)

	err = r.requests.UpdateStatus(ctx, "missing", entity.StatusRejected, "mgr-1", false, decided)
	assert.ErrorIs(t, err, entity.ErrRequestNotFound)

	err = r.requests.UpdateStatus(ctx, "r1", entity.StatusPending, "mgr-1", false, decided)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestRequestRepository_ListForViewer(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	base := time.Date(2028, 1, 1, 8, 0, 0, 0, time.UTC)
	r.createWithChain(t, newRequest("emp", "emp-1", "colaborador", base))
	r.createWithChain(t, newRequest("mgr", "mgr-1", "gerente", base.Add(time.Minute)))
	r.createWithChain(t, newRequest("hr", "hr-1", "rrhh", base.Add(2*time.Minute)))

	ids := func(list []*entity.LeaveRequest) []string {
		out := []string{}
		for _, l := range list {
			out = append(out, l.ID)
		}
		return out
	}

	own, err := r.requests.ListForViewer(ctx, "emp-1", hierarchy.Scope{Roles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"emp"}, ids(own))

	manager, err := r.requests.ListForViewer(ctx, "mgr-1", hierarchy.Scope{Roles: []string{"colaborador"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"mgr", "emp"}, ids(manager))

	all, err := r.requests.ListForViewer(ctx, "admin-1", hierarchy.Scope{All: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"hr", "mgr", "emp"}, ids(all))

	none, err := r.requests.ListForViewer(ctx, "nobody", hierarchy.Scope{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestStepRepository_ChainAndOutcome(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	r.createWithChain(t, newRequest("r1", "emp-1", "colaborador", time.Now()), "gerente", "director", "director_rrhh")

	steps, err := r.steps.ListSteps(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, want := range []string{"gerente", "director", "director_rrhh"} {
		assert.Equal(t, want, steps[i].Role)
		assert.Equal(t, i, steps[i].SequenceIndex)
		assert.Equal(t, entity.ActionNone, steps[i].Action)
		assert.Equal(t, entity.ModeNormal, steps[i].Mode)
		assert.Nil(t, steps[i].DecidedAt)
	}

	decided := time.Date(2028, 1, 3, 10, 0, 0, 0, time.UTC)
	updated, err := r.steps.RecordOutcome(ctx, "r1", "director", entity.Outcome{
		ApproverID: "dir-1", Action: entity.ActionRejected, Mode: entity.ModeManual,
		ManualReason: "coverage", DecidedAt: decided,
	})
	require.NoError(t, err)
	assert.Equal(t, "dir-1", updated.ApproverID)
	assert.Equal(t, entity.ActionRejected, updated.Action)
	assert.Equal(t, entity.ModeManual, updated.Mode)
	assert.Equal(t, "coverage", updated.ManualReason)
	assert.Equal(t, 1, updated.SequenceIndex)
	require.NotNil(t, updated.DecidedAt)

	_, err = r.steps.RecordOutcome(ctx, "r1", "rrhh", entity.Outcome{ApproverID: "x", Action: entity.ActionApproved, Mode: entity.ModeNormal, DecidedAt: decided})
	assert.ErrorIs(t, err, entity.ErrStepNotFound)
}

func TestStepRepository_DuplicateRoleRejected(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	err := r.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := r.requests.Create(txCtx, newRequest("r1", "emp-1", "colaborador", time.Now())); err != nil {
			return err
		}
		return r.steps.CreateChain(txCtx, "r1", []string{"gerente", "gerente"})
	})
	require.Error(t, err)
	assert.True(t, database.IsConstraint(err))

	_, err = r.requests.Get(ctx, "r1")
	assert.ErrorIs(t, err, entity.ErrRequestNotFound, "request must not exist without its chain")
}

func TestStepRepository_ListStepsForRequests(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	r.createWithChain(t, newRequest("a", "emp-1", "colaborador", time.Now()), "gerente", "director")
	r.createWithChain(t, newRequest("b", "mgr-1", "gerente", time.Now()), "director")
	r.createWithChain(t, newRequest("c", "hrd-1", "director_rrhh", time.Now()))

	got, err := r.steps.ListStepsForRequests(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, got["a"], 2)
	assert.Equal(t, "gerente", got["a"][0].Role)
	assert.Equal(t, "director", got["a"][1].Role)
	require.Len(t, got["b"], 1)
	assert.Empty(t, got["c"])

	empty, err := r.steps.ListStepsForRequests(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHistoryRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	r.createWithChain(t, newRequest("r1", "emp-1", "colaborador", time.Now()), "gerente")

	first := &entity.ApprovalHistory{RequestID: "r1", ActorID: "emp-1", ActionType: entity.HistorySubmit, NewStatus: entity.StatusPending, Timestamp: time.Now().UTC()}
	second := &entity.ApprovalHistory{
		RequestID: "r1", ActorID: "mgr-1", ActorRole: "gerente", ActionType: entity.HistoryAct,
		Action: entity.ActionApproved, Mode: entity.ModeNormal,
		PreviousStatus: entity.StatusPending, NewStatus: entity.StatusApproved, Timestamp: time.Now().UTC(),
	}
	require.NoError(t, r.history.Create(ctx, first))
	require.NoError(t, r.history.Create(ctx, second))
	assert.NotZero(t, first.ID)

	entries, err := r.history.ListByRequestID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, entity.HistorySubmit, entries[0].ActionType)
	assert.Equal(t, entity.StatusApproved, entries[1].NewStatus)
	assert.Equal(t, entity.ActionApproved, entries[1].Action)
}

func TestEmployeeRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, r.employees.Upsert(ctx, &entity.Employee{ID: "emp-1", DisplayName: "Ana", Role: "Colaborador"}))
	require.NoError(t, r.employees.Upsert(ctx, &entity.Employee{ID: "emp-1", DisplayName: "Ana María", Role: "gerente"}))
	assert.ErrorIs(t, r.employees.Upsert(ctx, &entity.Employee{ID: " "}), entity.ErrInvalidInput)

	role, err := r.employees.GetEmployeeRole(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "gerente", role)

	name, err := r.employees.GetDisplayName(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", name)

	_, err = r.employees.GetEmployeeRole(ctx, "ghost")
	assert.ErrorIs(t, err, entity.ErrEmployeeNotFound)

	name, err = r.employees.GetDisplayName(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "", name)

	list, err := r.employees.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
