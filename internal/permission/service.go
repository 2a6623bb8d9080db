package permission

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/frahmantamala/hr-approvals/internal/employee"
)

// Access is the outcome of a point check.
type Access struct {
	HasAccess bool   `json:"has_access"`
	Scope     Scope  `json:"scope,omitempty"`
	GrantID   string `json:"grant_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Service resolves grants on every call. Nothing is cached because branch,
// department and reporting lines change outside this module.
type Service struct {
	repo      Repository
	resolver  *ScopeResolver
	directory employee.Directory
	logger    *slog.Logger
}

func NewService(repo Repository, directory employee.Directory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		resolver:  NewScopeResolver(directory, logger),
		directory: directory,
		logger:    logger,
	}
}

// GetAccessibleEmployeeIDs unions every grant the approver holds for code.
// No grants yields an empty set, not an error.
func (s *Service) GetAccessibleEmployeeIDs(ctx context.Context, approverID, companyID string, code Code) (EmployeeSet, error) {
	grants, err := s.repo.ListGrants(ctx, approverID, companyID, code)
	if err != nil {
		s.logger.Error("failed to list grants",
			"approver_id", approverID,
			"company_id", companyID,
			"permission_code", code,
			"error", err)
		return nil, err
	}

	accessible := EmployeeSet{}
	for _, g := range grants {
		resolved, err := s.resolver.Resolve(ctx, g)
		if err != nil {
			return nil, err
		}
		accessible.Union(resolved)
	}

	s.logger.Debug("resolved accessible employees",
		"approver_id", approverID,
		"company_id", companyID,
		"permission_code", code,
		"grants", len(grants),
		"employees", len(accessible))

	return accessible, nil
}

// CanAccessEmployee checks one employee against the approver's grants and
// stops at the first grant that covers it.
func (s *Service) CanAccessEmployee(ctx context.Context, approverID, companyID string, code Code, targetID string) (Access, error) {
	grants, err := s.repo.ListGrants(ctx, approverID, companyID, code)
	if err != nil {
		s.logger.Error("failed to list grants",
			"approver_id", approverID,
			"company_id", companyID,
			"permission_code", code,
			"error", err)
		return Access{}, err
	}
	if len(grants) == 0 {
		return Access{Reason: "no grant for " + string(code)}, nil
	}

	// Grants that do not need the directory are checked first.
	sort.SliceStable(grants, func(i, j int) bool {
		return !needsTarget(grants[i].Scope) && needsTarget(grants[j].Scope)
	})

	var (
		target       *employee.Employee
		targetLoaded bool
	)
	for _, g := range grants {
		if needsTarget(g.Scope) && !targetLoaded {
			target, err = s.directory.GetByID(ctx, companyID, targetID)
			if err != nil && !errors.Is(err, employee.ErrEmployeeNotFound) {
				return Access{}, err
			}
			targetLoaded = true
		}
		if s.resolver.Covers(g, targetID, target) {
			return Access{HasAccess: true, Scope: g.Scope, GrantID: g.ID}, nil
		}
	}

	return Access{Reason: "employee is outside every " + string(code) + " grant"}, nil
}

// HasPermission reports whether the user holds code with any scope.
func (s *Service) HasPermission(ctx context.Context, userID, companyID string, code Code) (bool, error) {
	grants, err := s.repo.ListGrants(ctx, userID, companyID, code)
	if err != nil {
		return false, err
	}
	return len(grants) > 0, nil
}

// ApproversFor lists the holders of code whose grants cover the subject.
func (s *Service) ApproversFor(ctx context.Context, companyID string, code Code, subjectID string) ([]string, error) {
	holders, err := s.repo.ListHolders(ctx, companyID, code)
	if err != nil {
		s.logger.Error("failed to list permission holders",
			"company_id", companyID,
			"permission_code", code,
			"error", err)
		return nil, err
	}

	approvers := make([]string, 0, len(holders))
	for _, holder := range holders {
		access, err := s.CanAccessEmployee(ctx, holder, companyID, code, subjectID)
		if err != nil {
			return nil, err
		}
		if access.HasAccess {
			approvers = append(approvers, holder)
		}
	}
	sort.Strings(approvers)
	return approvers, nil
}

func (s *Service) ListUserGrants(ctx context.Context, companyID, userID string) ([]*Grant, error) {
	return s.repo.ListUserGrants(ctx, companyID, userID)
}

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	return s.repo.ListPermissions(ctx)
}
