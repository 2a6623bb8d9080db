package employee

import "time"

type Employee struct {
	ID           string    `gorm:"primaryKey;size:36" db:"id"`
	CompanyID    string    `gorm:"column:company_id;size:36;not null;index" db:"company_id"`
	ManagerID    *string   `gorm:"column:manager_id;size:36;index" db:"manager_id"`
	BranchID     *string   `gorm:"column:branch_id;size:36;index" db:"branch_id"`
	DepartmentID *string   `gorm:"column:department_id;size:36;index" db:"department_id"`
	EmployeeCode string    `gorm:"column:employee_code;size:32" db:"employee_code"`
	FirstName    string    `gorm:"column:first_name;not null" db:"first_name"`
	LastName     string    `gorm:"column:last_name;not null" db:"last_name"`
	IsActive     bool      `gorm:"column:is_active;default:true" db:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" db:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" db:"updated_at"`
}

// SalaryBaseline is the active base salary a raise is applied to.
type SalaryBaseline struct {
	ID         string    `gorm:"primaryKey;size:36"`
	CompanyID  string    `gorm:"column:company_id;size:36;not null"`
	EmployeeID string    `gorm:"column:employee_id;size:36;not null;index"`
	BaseSalary int64     `gorm:"column:base_salary;not null"`
	IsActive   bool      `gorm:"column:is_active;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SalaryChange records one mutation of a baseline.
type SalaryChange struct {
	ID         string    `gorm:"primaryKey;size:36"`
	CompanyID  string    `gorm:"column:company_id;size:36;not null"`
	EmployeeID string    `gorm:"column:employee_id;size:36;not null;index"`
	BaselineID string    `gorm:"column:baseline_id;size:36;not null"`
	RequestID  string    `gorm:"column:request_id;size:36;not null;uniqueIndex"`
	OldSalary  int64     `gorm:"column:old_salary;not null"`
	NewSalary  int64     `gorm:"column:new_salary;not null"`
	ChangedBy  string    `gorm:"column:changed_by;size:36"`
	Reason     string    `gorm:"column:reason"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (SalaryChange) TableName() string {
	return "salary_change_logs"
}
