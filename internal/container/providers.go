package container

import (
	"context"
	"fmt"

	"github.com/garyjia/leave-approval/internal/application/dispatcher"
	"github.com/garyjia/leave-approval/internal/application/port"
	"github.com/garyjia/leave-approval/internal/application/service"
	"github.com/garyjia/leave-approval/internal/domain/hierarchy"
	"github.com/garyjia/leave-approval/internal/infrastructure/calendar"
	"github.com/garyjia/leave-approval/internal/infrastructure/export"
	"github.com/garyjia/leave-approval/internal/infrastructure/notification"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/leave-approval/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/leave-approval/internal/metrics"
	"github.com/garyjia/leave-approval/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB        *database.DB
	TxManager *sqlite.DB
}

// ProvideDatabase opens the database, applies the embedded migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:        db,
		TxManager: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Requests:  repository.NewRequestRepository(db.DB, logger),
		Steps:     repository.NewStepRepository(db.DB, logger),
		History:   repository.NewHistoryRepository(db.DB, logger),
		Employees: repository.NewEmployeeRepository(db.DB, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger})), nil
}

// ServiceDeps holds dependencies for creating application services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Publisher service.Publisher
	Workflow  *WorkflowConfig
	Notifier  port.Notifier
	Exporter  port.Exporter
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	resolver, err := hierarchy.NewResolver(deps.Workflow.Hierarchy)
	if err != nil {
		return nil, fmt.Errorf("invalid hierarchy: %w", err)
	}
	visibility := hierarchy.NewVisibility(deps.Workflow.Visibility, deps.Workflow.AllVisibleRoles)
	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = notification.NewLogNotifier(deps.Logger)
	}
	exporter := deps.Exporter
	if exporter == nil {
		exporter = export.NewXLSXExporter(deps.Logger)
	}

	workflowSvc := service.NewWorkflowService(service.WorkflowDeps{
		Requests:  deps.Repos.Requests,
		Steps:     deps.Repos.Steps,
		History:   deps.Repos.History,
		TxManager: deps.TxManager,
		Resolver:  resolver,
		Directory: deps.Repos.Employees,
		Days:      calendar.NewWeekdayCounter(deps.Workflow.Holidays),
		Publisher: deps.Publisher,
		Logger:    serviceLogger,
	}, service.WorkflowOptions{
		OverrideRoles:       deps.Workflow.OverrideRoles,
		AllowStepRedecision: deps.Workflow.AllowStepRedecision,
	})

	views := service.NewViewService(
		deps.Repos.Requests,
		deps.Repos.Steps,
		deps.Repos.History,
		deps.Repos.Employees,
		visibility,
		serviceLogger,
	)

	return &ServiceBundle{
		Workflow:     workflowSvc,
		View:         views,
		Notification: service.NewNotificationService(notifier, deps.Repos.Employees, serviceLogger),
		Export:       service.NewExportService(views, exporter, serviceLogger),
	}, nil
}

// RegisterHandlers subscribes event consumers to the dispatcher.
func RegisterHandlers(disp dispatcher.Dispatcher, services *ServiceBundle, m *metrics.Metrics) {
	disp.Subscribe("notification", services.Notification.HandleEvent, service.NotificationEventTypes()...)
	if m != nil {
		recorder := metrics.NewRecorder(m)
		disp.Subscribe("metrics", recorder.HandleEvent, recorder.Types()...)
	}
}

// zapLoggerAdapter adapts zap.Logger to the service and dispatcher Logger interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
