// Package app wires repositories, services and HTTP handlers together.
package app

import (
	"log/slog"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/hr-approvals/internal/advance"
	"github.com/frahmantamala/hr-approvals/internal/approval"
	approvalPostgres "github.com/frahmantamala/hr-approvals/internal/approval/postgres"
	"github.com/frahmantamala/hr-approvals/internal/employee"
	employeePostgres "github.com/frahmantamala/hr-approvals/internal/employee/postgres"
	"github.com/frahmantamala/hr-approvals/internal/letter"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	permissionPostgres "github.com/frahmantamala/hr-approvals/internal/permission/postgres"
	"github.com/frahmantamala/hr-approvals/internal/raise"
	"github.com/frahmantamala/hr-approvals/internal/transport"
	"github.com/frahmantamala/hr-approvals/internal/transport/rest"
	"github.com/frahmantamala/hr-approvals/internal/workflow"
	workflowPostgres "github.com/frahmantamala/hr-approvals/internal/workflow/postgres"
)

type App struct {
	Directory   employee.Directory
	Permissions *permission.Service
	Planner     *approval.Planner
	Advances    *workflow.Coordinator[advance.Payload]
	Raises      *workflow.Coordinator[raise.Payload]
	Letters     *workflow.Coordinator[letter.Payload]
	Logger      *slog.Logger
}

// New builds the services. readDB serves the employee directory, gormDB the
// request, grant and chain configuration stores; both may share one pool.
func New(readDB *sqlx.DB, gormDB *gorm.DB, notifier workflow.Notifier, logger *slog.Logger) *App {
	directory := employeePostgres.NewDirectory(readDB)
	permissions := permission.NewService(permissionPostgres.NewPermissionRepository(gormDB), directory, logger.With("component", "permission"))
	planner := approval.NewPlanner(approvalPostgres.NewChainConfigRepository(gormDB), logger.With("component", "approval"))

	deps := workflow.Deps{
		Repository: workflowPostgres.NewRequestRepository(gormDB),
		Planner:    planner,
		Authorizer: permissions,
		Employees:  directory,
		Notifier:   notifier,
		Logger:     logger.With("component", "workflow"),
	}

	return &App{
		Directory:   directory,
		Permissions: permissions,
		Planner:     planner,
		Advances:    advance.NewCoordinator(deps),
		Raises:      raise.NewCoordinator(deps),
		Letters:     letter.NewCoordinator(deps),
		Logger:      logger,
	}
}

func (a *App) Handlers() rest.Handlers {
	base := transport.NewBaseHandler(a.Logger)
	return rest.Handlers{
		Advances:    workflow.NewHandler[advance.Payload](base, a.Advances),
		Raises:      workflow.NewHandler[raise.Payload](base, a.Raises),
		Letters:     workflow.NewHandler[letter.Payload](base, a.Letters),
		Permissions: permission.NewHandler(base, a.Permissions),
		ChainConfig: approval.NewHandler(base, a.Planner),
		Checker:     a.Permissions,
	}
}
