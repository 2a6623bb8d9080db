package permission

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	errors "github.com/frahmantamala/hr-approvals/internal"
)

// Scope is the breadth of employees a grant authorizes.
type Scope string

const (
	ScopeSelf       Scope = "SELF"
	ScopeTeam       Scope = "TEAM"
	ScopeBranch     Scope = "BRANCH"
	ScopeDepartment Scope = "DEPARTMENT"
	ScopeAll        Scope = "ALL"
	ScopeCustom     Scope = "CUSTOM"
)

var validScopes = map[Scope]bool{
	ScopeSelf:       true,
	ScopeTeam:       true,
	ScopeBranch:     true,
	ScopeDepartment: true,
	ScopeAll:        true,
	ScopeCustom:     true,
}

func (s Scope) IsValid() bool {
	return validScopes[s]
}

func ParseScope(raw string) (Scope, error) {
	s := Scope(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", ErrInvalidScope.WithMessage(fmt.Sprintf("unknown scope %q", raw))
	}
	return s, nil
}

var (
	ErrInvalidScope       = errors.NewValidationError("invalid permission scope", errors.ErrCodeInvalidScope)
	ErrMalformedGrant     = errors.NewValidationError("permission grant is malformed", errors.ErrCodeMalformedGrant)
	ErrGrantNotFound      = errors.NewNotFoundError("permission grant not found", errors.ErrCodeGrantNotFound)
	ErrPermissionNotFound = errors.NewNotFoundError("permission not found", errors.ErrCodePermissionNotFound)
	ErrUnauthorizedAccess = errors.NewForbiddenError("not allowed to manage permissions", errors.ErrCodeUnauthorizedAccess)
)

// Grant binds a user to a permission code with a scope. BRANCH needs BranchID,
// DEPARTMENT needs DepartmentID, CUSTOM needs EmployeeIDs; other scopes carry
// no target.
type Grant struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CompanyID    string    `json:"company_id"`
	Code         Code      `json:"permission_code"`
	Scope        Scope     `json:"scope"`
	BranchID     *string   `json:"branch_id,omitempty"`
	DepartmentID *string   `json:"department_id,omitempty"`
	EmployeeIDs  []string  `json:"employee_ids,omitempty"`
	GrantedBy    string    `json:"granted_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (g *Grant) Validate() error {
	if g.UserID == "" || g.CompanyID == "" || g.Code == "" {
		return ErrMalformedGrant.WithMessage("grant needs a user, a company and a permission code")
	}
	if !g.Scope.IsValid() {
		return ErrInvalidScope.WithMessage(fmt.Sprintf("unknown scope %q", g.Scope))
	}

	hasBranch := g.BranchID != nil && *g.BranchID != ""
	hasDepartment := g.DepartmentID != nil && *g.DepartmentID != ""
	hasEmployees := len(g.EmployeeIDs) > 0

	switch g.Scope {
	case ScopeBranch:
		if !hasBranch || hasDepartment || hasEmployees {
			return ErrMalformedGrant.WithMessage("BRANCH scope requires branch_id and nothing else")
		}
	case ScopeDepartment:
		if !hasDepartment || hasBranch || hasEmployees {
			return ErrMalformedGrant.WithMessage("DEPARTMENT scope requires department_id and nothing else")
		}
	case ScopeCustom:
		if !hasEmployees || hasBranch || hasDepartment {
			return ErrMalformedGrant.WithMessage("CUSTOM scope requires a non-empty employee list and nothing else")
		}
	default:
		if hasBranch || hasDepartment || hasEmployees {
			return ErrMalformedGrant.WithMessage(fmt.Sprintf("%s scope takes no target", g.Scope))
		}
	}
	return nil
}

// Permission is a catalog entry. Requires names a code that holders of this
// one must also hold.
type Permission struct {
	Code        Code   `json:"code"`
	Name        string `json:"name"`
	Module      string `json:"module"`
	Description string `json:"description,omitempty"`
	Requires    *Code  `json:"requires,omitempty"`
}

type AuditAction string

const (
	AuditAdded   AuditAction = "ADDED"
	AuditRemoved AuditAction = "REMOVED"
	AuditUpdated AuditAction = "UPDATED"
)

type AuditEntry struct {
	ID        string                 `json:"id"`
	CompanyID string                 `json:"company_id"`
	UserID    string                 `json:"user_id"`
	Code      Code                   `json:"permission_code"`
	Action    AuditAction            `json:"action"`
	Before    map[string]interface{} `json:"before,omitempty"`
	After     map[string]interface{} `json:"after,omitempty"`
	ChangedBy string                 `json:"changed_by"`
	Reason    string                 `json:"reason,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// GrantStore is the read path used for authorization.
type GrantStore interface {
	ListGrants(ctx context.Context, userID, companyID string, code Code) ([]*Grant, error)
}

// Repository is the full persistence contract of the permission module.
type Repository interface {
	GrantStore
	ListUserGrants(ctx context.Context, companyID, userID string) ([]*Grant, error)
	ListHolders(ctx context.Context, companyID string, code Code) ([]string, error)
	GetGrant(ctx context.Context, companyID, grantID string) (*Grant, error)
	CreateGrant(ctx context.Context, grant *Grant) error
	DeleteGrant(ctx context.Context, companyID, grantID string) error
	UpdateGrantEmployees(ctx context.Context, companyID, grantID string, employeeIDs []string) error
	ReplaceUserGrants(ctx context.Context, companyID, userID string, grants []*Grant) ([]*Grant, error)
	GetPermission(ctx context.Context, code Code) (*Permission, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)
	AppendAudit(ctx context.Context, entry *AuditEntry) error
}

// EmployeeSet is a set of employee ids.
type EmployeeSet map[string]struct{}

func NewEmployeeSet(ids ...string) EmployeeSet {
	set := make(EmployeeSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s EmployeeSet) Add(id string) {
	s[id] = struct{}{}
}

func (s EmployeeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s EmployeeSet) Union(other EmployeeSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Slice returns the ids sorted.
func (s EmployeeSet) Slice() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func grantSnapshot(g *Grant) map[string]interface{} {
	snap := map[string]interface{}{
		"grant_id": g.ID,
		"scope":    string(g.Scope),
	}
	if g.BranchID != nil {
		snap["branch_id"] = *g.BranchID
	}
	if g.DepartmentID != nil {
		snap["department_id"] = *g.DepartmentID
	}
	if len(g.EmployeeIDs) > 0 {
		snap["employee_ids"] = append([]string(nil), g.EmployeeIDs...)
	}
	return snap
}
