package postgres

import (
	"context"
	"database/sql"
	"errors"

	employeeDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/employee"
	"github.com/frahmantamala/hr-approvals/internal/employee"
	"github.com/jmoiron/sqlx"
)

const employeeColumns = `id, company_id, manager_id, branch_id, department_id, employee_code, first_name, last_name, is_active, created_at, updated_at`

// Directory reads employees with sqlx; queries are written with ? and rebound per driver.
type Directory struct {
	db *sqlx.DB
}

func NewDirectory(db *sqlx.DB) employee.Directory {
	return &Directory{db: db}
}

func (d *Directory) GetByID(ctx context.Context, companyID, employeeID string) (*employee.Employee, error) {
	var row employeeDatamodel.Employee
	query := d.db.Rebind(`SELECT ` + employeeColumns + ` FROM employees WHERE company_id = ? AND id = ?`)
	if err := d.db.GetContext(ctx, &row, query, companyID, employeeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return employee.FromDataModel(&row), nil
}

// ListByManager returns direct reports only, active or not.
func (d *Directory) ListByManager(ctx context.Context, companyID, managerID string) ([]*employee.Employee, error) {
	return d.list(ctx, `company_id = ? AND manager_id = ?`, companyID, managerID)
}

func (d *Directory) ListByBranch(ctx context.Context, companyID, branchID string) ([]*employee.Employee, error) {
	return d.list(ctx, `company_id = ? AND branch_id = ? AND is_active = ?`, companyID, branchID, true)
}

func (d *Directory) ListByDepartment(ctx context.Context, companyID, departmentID string) ([]*employee.Employee, error) {
	return d.list(ctx, `company_id = ? AND department_id = ? AND is_active = ?`, companyID, departmentID, true)
}

func (d *Directory) ListAllActive(ctx context.Context, companyID string) ([]*employee.Employee, error) {
	return d.list(ctx, `company_id = ? AND is_active = ?`, companyID, true)
}

func (d *Directory) list(ctx context.Context, where string, args ...interface{}) ([]*employee.Employee, error) {
	var rows []employeeDatamodel.Employee
	query := d.db.Rebind(`SELECT ` + employeeColumns + ` FROM employees WHERE ` + where + ` ORDER BY id`)
	if err := d.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return employee.FromDataModelSlice(rows), nil
}
