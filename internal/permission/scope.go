package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/hr-approvals/internal/employee"
)

// ScopeResolver turns a grant into the employees it covers. Reads only.
type ScopeResolver struct {
	directory employee.Directory
	logger    *slog.Logger
}

func NewScopeResolver(directory employee.Directory, logger *slog.Logger) *ScopeResolver {
	return &ScopeResolver{
		directory: directory,
		logger:    logger,
	}
}

// Resolve returns the employees covered by the grant. A malformed grant
// resolves to the empty set and is logged; only directory failures are returned.
func (r *ScopeResolver) Resolve(ctx context.Context, g *Grant) (EmployeeSet, error) {
	if err := g.Validate(); err != nil {
		r.warnMalformed(g, err)
		return EmployeeSet{}, nil
	}

	var (
		employees []*employee.Employee
		err       error
	)

	switch g.Scope {
	case ScopeSelf:
		return NewEmployeeSet(g.UserID), nil
	case ScopeCustom:
		return NewEmployeeSet(g.EmployeeIDs...), nil
	case ScopeTeam:
		employees, err = r.directory.ListByManager(ctx, g.CompanyID, g.UserID)
	case ScopeBranch:
		employees, err = r.directory.ListByBranch(ctx, g.CompanyID, *g.BranchID)
	case ScopeDepartment:
		employees, err = r.directory.ListByDepartment(ctx, g.CompanyID, *g.DepartmentID)
	case ScopeAll:
		employees, err = r.directory.ListAllActive(ctx, g.CompanyID)
	}
	if err != nil {
		r.logger.Error("failed to resolve grant scope",
			"grant_id", g.ID,
			"scope", g.Scope,
			"company_id", g.CompanyID,
			"error", err)
		return nil, err
	}

	return NewEmployeeSet(employee.IDs(employees)...), nil
}

// Covers reports whether the grant authorizes acting on target without listing
// the whole scope. Target may be nil when the employee is unknown; only SELF
// and CUSTOM can match then.
func (r *ScopeResolver) Covers(g *Grant, targetID string, target *employee.Employee) bool {
	if err := g.Validate(); err != nil {
		r.warnMalformed(g, err)
		return false
	}

	switch g.Scope {
	case ScopeSelf:
		return targetID == g.UserID
	case ScopeCustom:
		for _, id := range g.EmployeeIDs {
			if id == targetID {
				return true
			}
		}
		return false
	}

	if target == nil || target.CompanyID != g.CompanyID {
		return false
	}

	switch g.Scope {
	case ScopeTeam:
		return target.ReportsTo(g.UserID)
	case ScopeBranch:
		return target.IsActive && target.InBranch(*g.BranchID)
	case ScopeDepartment:
		return target.IsActive && target.InDepartment(*g.DepartmentID)
	case ScopeAll:
		return target.IsActive
	}
	return false
}

// needsTarget reports whether Covers has to look the employee up.
func needsTarget(s Scope) bool {
	return s != ScopeSelf && s != ScopeCustom
}

func (r *ScopeResolver) warnMalformed(g *Grant, err error) {
	r.logger.Warn("ignoring malformed permission grant",
		"grant_id", g.ID,
		"user_id", g.UserID,
		"company_id", g.CompanyID,
		"permission_code", g.Code,
		"scope", g.Scope,
		"error", err)
}
