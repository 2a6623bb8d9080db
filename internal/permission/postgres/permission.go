package postgres

import (
	"context"
	"encoding/json"
	"errors"

	permissionDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/permission"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PermissionRepository implements permission.Repository using GORM
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.Repository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) ListGrants(ctx context.Context, userID, companyID string, code permission.Code) ([]*permission.Grant, error) {
	var rows []permissionDatamodel.Grant
	err := r.db.WithContext(ctx).
		Preload("Employees").
		Where("user_id = ? AND company_id = ? AND permission_code = ?", userID, companyID, string(code)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromGrantRows(rows), nil
}

func (r *PermissionRepository) ListUserGrants(ctx context.Context, companyID, userID string) ([]*permission.Grant, error) {
	var rows []permissionDatamodel.Grant
	err := r.db.WithContext(ctx).
		Preload("Employees").
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Order("permission_code ASC, created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return fromGrantRows(rows), nil
}

func (r *PermissionRepository) ListHolders(ctx context.Context, companyID string, code permission.Code) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).
		Model(&permissionDatamodel.Grant{}).
		Where("company_id = ? AND permission_code = ?", companyID, string(code)).
		Distinct().
		Order("user_id").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *PermissionRepository) GetGrant(ctx context.Context, companyID, grantID string) (*permission.Grant, error) {
	var row permissionDatamodel.Grant
	err := r.db.WithContext(ctx).
		Preload("Employees").
		Where("id = ? AND company_id = ?", grantID, companyID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrGrantNotFound
		}
		return nil, err
	}
	return fromGrantRow(&row), nil
}

func (r *PermissionRepository) CreateGrant(ctx context.Context, grant *permission.Grant) error {
	return r.db.WithContext(ctx).Create(toGrantRow(grant)).Error
}

func (r *PermissionRepository) DeleteGrant(ctx context.Context, companyID, grantID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND company_id = ?", grantID, companyID).Delete(&permissionDatamodel.Grant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return permission.ErrGrantNotFound
		}
		return tx.Where("grant_id = ?", grantID).Delete(&permissionDatamodel.GrantEmployee{}).Error
	})
}

func (r *PermissionRepository) UpdateGrantEmployees(ctx context.Context, companyID, grantID string, employeeIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&permissionDatamodel.Grant{}).
			Where("id = ? AND company_id = ?", grantID, companyID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return permission.ErrGrantNotFound
		}
		if err := tx.Where("grant_id = ?", grantID).Delete(&permissionDatamodel.GrantEmployee{}).Error; err != nil {
			return err
		}
		if len(employeeIDs) == 0 {
			return nil
		}
		return tx.Create(grantEmployees(grantID, employeeIDs)).Error
	})
}

func (r *PermissionRepository) ReplaceUserGrants(ctx context.Context, companyID, userID string, grants []*permission.Grant) ([]*permission.Grant, error) {
	var removed []*permission.Grant
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []permissionDatamodel.Grant
		if err := tx.Preload("Employees").
			Where("user_id = ? AND company_id = ?", userID, companyID).
			Find(&existing).Error; err != nil {
			return err
		}

		ids := make([]string, len(existing))
		for i := range existing {
			ids[i] = existing[i].ID
		}
		if len(ids) > 0 {
			if err := tx.Where("grant_id IN ?", ids).Delete(&permissionDatamodel.GrantEmployee{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&permissionDatamodel.Grant{}).Error; err != nil {
				return err
			}
		}

		for _, g := range grants {
			if err := tx.Create(toGrantRow(g)).Error; err != nil {
				return err
			}
		}

		removed = fromGrantRows(existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *PermissionRepository) GetPermission(ctx context.Context, code permission.Code) (*permission.Permission, error) {
	var row permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("code = ?", string(code)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrPermissionNotFound
		}
		return nil, err
	}
	return fromPermissionRow(&row), nil
}

func (r *PermissionRepository) ListPermissions(ctx context.Context) ([]*permission.Permission, error) {
	var rows []permissionDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("module ASC, code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*permission.Permission, len(rows))
	for i := range rows {
		result[i] = fromPermissionRow(&rows[i])
	}
	return result, nil
}

func (r *PermissionRepository) AppendAudit(ctx context.Context, entry *permission.AuditEntry) error {
	before, err := marshalSnapshot(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshalSnapshot(entry.After)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&permissionDatamodel.AuditLog{
		ID:             entry.ID,
		CompanyID:      entry.CompanyID,
		UserID:         entry.UserID,
		PermissionCode: string(entry.Code),
		Action:         string(entry.Action),
		Before:         before,
		After:          after,
		ChangedBy:      entry.ChangedBy,
		Reason:         entry.Reason,
		CreatedAt:      entry.CreatedAt,
	}).Error
}

// UpsertPermissions stores catalog entries, used by the seeder.
func UpsertPermissions(ctx context.Context, db *gorm.DB, catalog []*permission.Permission) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range catalog {
			row := toPermissionRow(p)
			if err := tx.Where(permissionDatamodel.Permission{Code: row.Code}).
				Assign(permissionDatamodel.Permission{Name: row.Name, Module: row.Module, Description: row.Description, Requires: row.Requires}).
				FirstOrCreate(&permissionDatamodel.Permission{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func marshalSnapshot(snap map[string]interface{}) (datatypes.JSON, error) {
	if snap == nil {
		return datatypes.JSON("null"), nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func toGrantRow(g *permission.Grant) *permissionDatamodel.Grant {
	return &permissionDatamodel.Grant{
		ID:             g.ID,
		UserID:         g.UserID,
		CompanyID:      g.CompanyID,
		PermissionCode: string(g.Code),
		Scope:          string(g.Scope),
		BranchID:       g.BranchID,
		DepartmentID:   g.DepartmentID,
		GrantedBy:      g.GrantedBy,
		CreatedAt:      g.CreatedAt,
		Employees:      grantEmployees(g.ID, g.EmployeeIDs),
	}
}

func grantEmployees(grantID string, employeeIDs []string) []permissionDatamodel.GrantEmployee {
	if len(employeeIDs) == 0 {
		return nil
	}
	rows := make([]permissionDatamodel.GrantEmployee, len(employeeIDs))
	for i, id := range employeeIDs {
		rows[i] = permissionDatamodel.GrantEmployee{GrantID: grantID, EmployeeID: id}
	}
	return rows
}

func fromGrantRow(row *permissionDatamodel.Grant) *permission.Grant {
	g := &permission.Grant{
		ID:           row.ID,
		UserID:       row.UserID,
		CompanyID:    row.CompanyID,
		Code:         permission.Code(row.PermissionCode),
		Scope:        permission.Scope(row.Scope),
		BranchID:     row.BranchID,
		DepartmentID: row.DepartmentID,
		GrantedBy:    row.GrantedBy,
		CreatedAt:    row.CreatedAt,
	}
	for _, e := range row.Employees {
		g.EmployeeIDs = append(g.EmployeeIDs, e.EmployeeID)
	}
	return g
}

func fromGrantRows(rows []permissionDatamodel.Grant) []*permission.Grant {
	result := make([]*permission.Grant, len(rows))
	for i := range rows {
		result[i] = fromGrantRow(&rows[i])
	}
	return result
}

func toPermissionRow(p *permission.Permission) *permissionDatamodel.Permission {
	row := &permissionDatamodel.Permission{
		Code:        string(p.Code),
		Name:        p.Name,
		Module:      p.Module,
		Description: p.Description,
	}
	if p.Requires != nil {
		requires := string(*p.Requires)
		row.Requires = &requires
	}
	return row
}

func fromPermissionRow(row *permissionDatamodel.Permission) *permission.Permission {
	p := &permission.Permission{
		Code:        permission.Code(row.Code),
		Name:        row.Name,
		Module:      row.Module,
		Description: row.Description,
	}
	if row.Requires != nil {
		requires := permission.Code(*row.Requires)
		p.Requires = &requires
	}
	return p
}
