package permission_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/permission"
)

var _ = Describe("Grant administration", func() {
	var (
		repo    *mockRepository
		service *permission.Service
		ctx     context.Context
		code    permission.Code
	)

	BeforeEach(func() {
		repo = newMockRepository()
		service = permission.NewService(repo, orgDirectory(), testLogger())
		ctx = context.Background()
		code = permission.ApproveCode(permission.ModuleRaises, approval.StepManager)

		repo.add(&permission.Grant{ID: "admin", UserID: "admin", CompanyID: "c1", Code: permission.PermissionsManage, Scope: permission.ScopeAll})
	})

	Describe("AddGrant", func() {
		It("should refuse actors without PERMISSIONS_MANAGE", func() {
			_, err := service.AddGrant(ctx, "mgr", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: code, Scope: permission.ScopeTeam})
			Expect(errors.Is(err, permission.ErrUnauthorizedAccess)).To(BeTrue())
		})

		It("should refuse a BRANCH grant without a branch", func() {
			_, err := service.AddGrant(ctx, "admin", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: code, Scope: permission.ScopeBranch})
			Expect(errors.Is(err, permission.ErrMalformedGrant)).To(BeTrue())
		})

		It("should refuse a CUSTOM grant with an empty list", func() {
			_, err := service.AddGrant(ctx, "admin", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: code, Scope: permission.ScopeCustom})
			Expect(errors.Is(err, permission.ErrMalformedGrant)).To(BeTrue())
		})

		It("should refuse unknown permission codes", func() {
			_, err := service.AddGrant(ctx, "admin", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: "UNKNOWN", Scope: permission.ScopeSelf})
			Expect(errors.Is(err, permission.ErrPermissionNotFound)).To(BeTrue())
		})

		It("should auto-grant the required view permission with SELF scope", func() {
			// When
			g, err := service.AddGrant(ctx, "admin", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: code, Scope: permission.ScopeTeam})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(g.ID).NotTo(BeEmpty())
			Expect(g.GrantedBy).To(Equal("admin"))

			grants, err := service.ListUserGrants(ctx, "c1", "mgr")
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(2))

			held, err := service.HasPermission(ctx, "mgr", "c1", permission.RaisesView)
			Expect(err).NotTo(HaveOccurred())
			Expect(held).To(BeTrue())

			Expect(repo.audits).To(HaveLen(2))
			Expect(repo.audits[0].Action).To(Equal(permission.AuditAdded))
			Expect(repo.audits[1].Reason).To(ContainSubstring(string(code)))
		})

		It("should not duplicate a dependency that is already held", func() {
			repo.add(&permission.Grant{ID: "v", UserID: "mgr", CompanyID: "c1", Code: permission.RaisesView, Scope: permission.ScopeAll})

			_, err := service.AddGrant(ctx, "admin", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: code, Scope: permission.ScopeTeam})
			Expect(err).NotTo(HaveOccurred())

			grants, _ := service.ListUserGrants(ctx, "c1", "mgr")
			Expect(grants).To(HaveLen(2))
		})

		It("should not fail the grant when the audit write fails", func() {
			repo.auditError = errors.New("audit table locked")
			_, err := service.AddGrant(ctx, "admin", &permission.Grant{UserID: "mgr", CompanyID: "c1", Code: permission.RaisesView, Scope: permission.ScopeSelf})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("RemoveGrant", func() {
		It("should delete the grant and audit it", func() {
			repo.add(&permission.Grant{ID: "g1", UserID: "mgr", CompanyID: "c1", Code: code, Scope: permission.ScopeTeam})

			Expect(service.RemoveGrant(ctx, "admin", "c1", "g1")).To(Succeed())

			held, _ := service.HasPermission(ctx, "mgr", "c1", code)
			Expect(held).To(BeFalse())
			Expect(repo.audits).To(HaveLen(1))
			Expect(repo.audits[0].Action).To(Equal(permission.AuditRemoved))
			Expect(repo.audits[0].Before).To(HaveKeyWithValue("scope", "TEAM"))
		})

		It("should treat other tenants' grants as missing", func() {
			repo.add(&permission.Grant{ID: "g2", UserID: "mgr", CompanyID: "c2", Code: code, Scope: permission.ScopeTeam})

			err := service.RemoveGrant(ctx, "admin", "c1", "g2")
			Expect(errors.Is(err, permission.ErrGrantNotFound)).To(BeTrue())
		})
	})

	Describe("UpdateGrantEmployees", func() {
		It("should replace the list of a CUSTOM grant", func() {
			repo.add(&permission.Grant{ID: "g1", UserID: "hr", CompanyID: "c1", Code: code, Scope: permission.ScopeCustom, EmployeeIDs: []string{"e1"}})

			g, err := service.UpdateGrantEmployees(ctx, "admin", "c1", "g1", []string{"e3", "e3", "y1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(g.EmployeeIDs).To(Equal([]string{"e3", "y1"}))

			set, _ := service.GetAccessibleEmployeeIDs(ctx, "hr", "c1", code)
			Expect(set.Slice()).To(Equal([]string{"e3", "y1"}))
		})

		It("should refuse an empty list", func() {
			repo.add(&permission.Grant{ID: "g1", UserID: "hr", CompanyID: "c1", Code: code, Scope: permission.ScopeCustom, EmployeeIDs: []string{"e1"}})

			_, err := service.UpdateGrantEmployees(ctx, "admin", "c1", "g1", nil)
			Expect(errors.Is(err, permission.ErrMalformedGrant)).To(BeTrue())
		})

		It("should refuse non CUSTOM grants", func() {
			repo.add(&permission.Grant{ID: "g1", UserID: "hr", CompanyID: "c1", Code: code, Scope: permission.ScopeAll})

			_, err := service.UpdateGrantEmployees(ctx, "admin", "c1", "g1", []string{"e1"})
			Expect(errors.Is(err, permission.ErrMalformedGrant)).To(BeTrue())
		})
	})

	Describe("ReplaceUserGrants", func() {
		It("should swap every grant of the user", func() {
			repo.add(&permission.Grant{ID: "old", UserID: "hr", CompanyID: "c1", Code: code, Scope: permission.ScopeAll})

			grants, err := service.ReplaceUserGrants(ctx, "admin", "c1", "hr", []*permission.Grant{
				{Code: permission.RaisesView, Scope: permission.ScopeSelf},
				{Code: code, Scope: permission.ScopeBranch, BranchID: strPtr("b1")},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(HaveLen(2))

			current, _ := service.ListUserGrants(ctx, "c1", "hr")
			Expect(current).To(HaveLen(2))
			for _, g := range current {
				Expect(g.ID).NotTo(Equal("old"))
				Expect(g.UserID).To(Equal("hr"))
			}
			Expect(repo.audits).To(HaveLen(3))
		})

		It("should leave grants untouched when one entry is malformed", func() {
			repo.add(&permission.Grant{ID: "old", UserID: "hr", CompanyID: "c1", Code: code, Scope: permission.ScopeAll})

			_, err := service.ReplaceUserGrants(ctx, "admin", "c1", "hr", []*permission.Grant{
				{Code: code, Scope: permission.ScopeDepartment},
			})
			Expect(errors.Is(err, permission.ErrMalformedGrant)).To(BeTrue())

			current, _ := service.ListUserGrants(ctx, "c1", "hr")
			Expect(current).To(HaveLen(1))
		})
	})
})
