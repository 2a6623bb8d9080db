package permission

import (
	"time"

	"gorm.io/datatypes"
)

type Permission struct {
	Code        string    `gorm:"primaryKey;column:code;size:64"`
	Name        string    `gorm:"column:name;not null"`
	Module      string    `gorm:"column:module;size:32;not null"`
	Description string    `gorm:"column:description"`
	Requires    *string   `gorm:"column:requires;size:64"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Grant struct {
	ID             string          `gorm:"primaryKey;size:36"`
	UserID         string          `gorm:"column:user_id;size:36;not null;index:idx_grants_lookup"`
	CompanyID      string          `gorm:"column:company_id;size:36;not null;index:idx_grants_lookup"`
	PermissionCode string          `gorm:"column:permission_code;size:64;not null;index:idx_grants_lookup"`
	Scope          string          `gorm:"column:scope;size:16;not null"`
	BranchID       *string         `gorm:"column:branch_id;size:36"`
	DepartmentID   *string         `gorm:"column:department_id;size:36"`
	GrantedBy      string          `gorm:"column:granted_by;size:36"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	Employees      []GrantEmployee `gorm:"foreignKey:GrantID;constraint:OnDelete:CASCADE"`
}

func (Grant) TableName() string {
	return "permission_grants"
}

// GrantEmployee is one entry of a CUSTOM grant's explicit list.
type GrantEmployee struct {
	GrantID    string `gorm:"primaryKey;column:grant_id;size:36"`
	EmployeeID string `gorm:"primaryKey;column:employee_id;size:36"`
}

func (GrantEmployee) TableName() string {
	return "permission_grant_employees"
}

type AuditLog struct {
	ID             string         `gorm:"primaryKey;size:36"`
	CompanyID      string         `gorm:"column:company_id;size:36;not null;index"`
	UserID         string         `gorm:"column:user_id;size:36;not null;index"`
	PermissionCode string         `gorm:"column:permission_code;size:64;not null"`
	Action         string         `gorm:"column:action;size:16;not null"`
	Before         datatypes.JSON `gorm:"column:before_value"`
	After          datatypes.JSON `gorm:"column:after_value"`
	ChangedBy      string         `gorm:"column:changed_by;size:36"`
	Reason         string         `gorm:"column:reason"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string {
	return "permission_audit_logs"
}
