package employee

import (
	"context"
	"strings"

	errors "github.com/frahmantamala/hr-approvals/internal"
	employeeDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/employee"
)

var ErrEmployeeNotFound = errors.NewNotFoundError("employee not found", errors.ErrCodeEmployeeNotFound)

type Employee struct {
	ID           string  `json:"id"`
	CompanyID    string  `json:"company_id"`
	ManagerID    *string `json:"manager_id,omitempty"`
	BranchID     *string `json:"branch_id,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	EmployeeCode string  `json:"employee_code,omitempty"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsActive     bool    `json:"is_active"`
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ReportsTo reports whether managerID is the employee's direct manager.
func (e *Employee) ReportsTo(managerID string) bool {
	return e.ManagerID != nil && *e.ManagerID == managerID
}

func (e *Employee) InBranch(branchID string) bool {
	return e.BranchID != nil && *e.BranchID == branchID
}

func (e *Employee) InDepartment(departmentID string) bool {
	return e.DepartmentID != nil && *e.DepartmentID == departmentID
}

// Directory is the read model the permission scopes are resolved against.
// Branch, department and company listings return active employees only.
type Directory interface {
	GetByID(ctx context.Context, companyID, employeeID string) (*Employee, error)
	ListByManager(ctx context.Context, companyID, managerID string) ([]*Employee, error)
	ListByBranch(ctx context.Context, companyID, branchID string) ([]*Employee, error)
	ListByDepartment(ctx context.Context, companyID, departmentID string) ([]*Employee, error)
	ListAllActive(ctx context.Context, companyID string) ([]*Employee, error)
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:           e.ID,
		CompanyID:    e.CompanyID,
		ManagerID:    e.ManagerID,
		BranchID:     e.BranchID,
		DepartmentID: e.DepartmentID,
		EmployeeCode: e.EmployeeCode,
		FirstName:    e.FirstName,
		LastName:     e.LastName,
		IsActive:     e.IsActive,
	}
}

func FromDataModelSlice(rows []employeeDatamodel.Employee) []*Employee {
	result := make([]*Employee, len(rows))
	for i := range rows {
		result[i] = FromDataModel(&rows[i])
	}
	return result
}

// IDs returns the employee ids in order.
func IDs(employees []*Employee) []string {
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	return ids
}
