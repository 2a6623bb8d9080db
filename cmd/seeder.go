package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	employeeDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/employee"
	permissionDatamodel "github.com/frahmantamala/hr-approvals/internal/core/datamodel/permission"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	permissionPostgres "github.com/frahmantamala/hr-approvals/internal/permission/postgres"
)

const seedCompanyID = "00000000-0000-0000-0000-0000000000c1"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with the permission catalog and a two-branch sample company for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if err := runSeed(cmd.Context(), db, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seeding completed")
	},
}

var seedTables = []string{
	"approval_logs",
	"approval_request_steps",
	"approval_requests",
	"approval_chain_configs",
	"permission_audit_logs",
	"permission_grant_employees",
	"permission_grants",
	"salary_change_logs",
	"salary_baselines",
	"employees",
}

type seedEmployee struct {
	id, code, first, last string
	manager, branch, dept string
	salary                int64
}

// Branch X and Y each have an HR officer whose grants stop at their branch.
var seedEmployees = []seedEmployee{
	{id: "00000000-0000-0000-0000-000000000001", code: "E001", first: "Clara", last: "Ceo"},
	{id: "00000000-0000-0000-0000-000000000002", code: "E002", first: "Adam", last: "Admin", manager: "00000000-0000-0000-0000-000000000001"},
	{id: "00000000-0000-0000-0000-000000000003", code: "E003", first: "Fiona", last: "Finance", manager: "00000000-0000-0000-0000-000000000001", dept: "dept-finance"},
	{id: "00000000-0000-0000-0000-000000000010", code: "X001", first: "Hana", last: "Xavier", manager: "00000000-0000-0000-0000-000000000001", branch: "branch-x", dept: "dept-hr"},
	{id: "00000000-0000-0000-0000-000000000011", code: "X002", first: "Mark", last: "Xavier", manager: "00000000-0000-0000-0000-000000000001", branch: "branch-x", dept: "dept-ops", salary: 9000000},
	{id: "00000000-0000-0000-0000-000000000012", code: "X003", first: "Sam", last: "Xavier", manager: "00000000-0000-0000-0000-000000000011", branch: "branch-x", dept: "dept-ops", salary: 6000000},
	{id: "00000000-0000-0000-0000-000000000013", code: "X004", first: "Tia", last: "Xavier", manager: "00000000-0000-0000-0000-000000000011", branch: "branch-x", dept: "dept-ops", salary: 6500000},
	{id: "00000000-0000-0000-0000-000000000020", code: "Y001", first: "Hugo", last: "Yates", manager: "00000000-0000-0000-0000-000000000001", branch: "branch-y", dept: "dept-hr"},
	{id: "00000000-0000-0000-0000-000000000021", code: "Y002", first: "Maya", last: "Yates", manager: "00000000-0000-0000-0000-000000000001", branch: "branch-y", dept: "dept-ops", salary: 8500000},
	{id: "00000000-0000-0000-0000-000000000022", code: "Y003", first: "Yusuf", last: "Yates", manager: "00000000-0000-0000-0000-000000000021", branch: "branch-y", dept: "dept-ops", salary: 5500000},
}

func runSeed(ctx context.Context, db *gorm.DB, clear bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			for _, table := range seedTables {
				if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					return fmt.Errorf("failed to clear %s: %w", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		if err := permissionPostgres.UpsertPermissions(ctx, tx, permission.DefaultCatalog()); err != nil {
			return fmt.Errorf("failed to seed permission catalog: %w", err)
		}

		for _, e := range seedEmployees {
			row := employeeDatamodel.Employee{
				ID:           e.id,
				CompanyID:    seedCompanyID,
				ManagerID:    optional(e.manager),
				BranchID:     optional(e.branch),
				DepartmentID: optional(e.dept),
				EmployeeCode: e.code,
				FirstName:    e.first,
				LastName:     e.last,
				IsActive:     true,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed employee %s: %w", e.code, err)
			}
			if e.salary == 0 {
				continue
			}

			var count int64
			if err := tx.Model(&employeeDatamodel.SalaryBaseline{}).
				Where("employee_id = ? AND is_active = ?", e.id, true).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			baseline := employeeDatamodel.SalaryBaseline{
				ID:         uuid.NewString(),
				CompanyID:  seedCompanyID,
				EmployeeID: e.id,
				BaseSalary: e.salary,
				IsActive:   true,
			}
			if err := tx.Create(&baseline).Error; err != nil {
				return fmt.Errorf("failed to seed salary for %s: %w", e.code, err)
			}
		}

		for _, g := range seedGrants() {
			var count int64
			if err := tx.Model(&permissionDatamodel.Grant{}).
				Where("user_id = ? AND company_id = ? AND permission_code = ?", g.UserID, g.CompanyID, g.PermissionCode).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&g).Error; err != nil {
				return fmt.Errorf("failed to seed grant %s for %s: %w", g.PermissionCode, g.UserID, err)
			}
		}

		fmt.Printf("Seeded %d employees for company %s\n", len(seedEmployees), seedCompanyID)
		return nil
	})
}

func seedGrants() []permissionDatamodel.Grant {
	const (
		ceo     = "00000000-0000-0000-0000-000000000001"
		admin   = "00000000-0000-0000-0000-000000000002"
		finance = "00000000-0000-0000-0000-000000000003"
		hrX     = "00000000-0000-0000-0000-000000000010"
		hrY     = "00000000-0000-0000-0000-000000000020"
	)

	grant := func(userID string, code permission.Code, scope permission.Scope, branch string) permissionDatamodel.Grant {
		return permissionDatamodel.Grant{
			ID:             uuid.NewString(),
			UserID:         userID,
			CompanyID:      seedCompanyID,
			PermissionCode: string(code),
			Scope:          string(scope),
			BranchID:       optional(branch),
			GrantedBy:      admin,
		}
	}

	grants := []permissionDatamodel.Grant{
		grant(admin, permission.PermissionsManage, permission.ScopeAll, ""),
		grant(admin, permission.ApprovalChainsManage, permission.ScopeAll, ""),
	}
	for _, module := range []string{permission.ModuleAdvances, permission.ModuleRaises, permission.ModuleLetters} {
		grants = append(grants,
			grant(hrX, permission.ApproveCode(module, approval.StepHR), permission.ScopeBranch, "branch-x"),
			grant(hrY, permission.ApproveCode(module, approval.StepHR), permission.ScopeBranch, "branch-y"),
			grant(hrX, permission.ViewCode(module), permission.ScopeBranch, "branch-x"),
			grant(hrY, permission.ViewCode(module), permission.ScopeBranch, "branch-y"),
			grant(finance, permission.ApproveCode(module, approval.StepFinance), permission.ScopeAll, ""),
			grant(ceo, permission.ApproveCode(module, approval.StepCEO), permission.ScopeAll, ""),
			grant(ceo, permission.ViewCode(module), permission.ScopeAll, ""),
		)
	}
	return grants
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
