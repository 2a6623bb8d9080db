package permission_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/permission"
	"github.com/frahmantamala/hr-approvals/internal/transport"
	"github.com/frahmantamala/hr-approvals/internal/transport/middleware"
)

var _ = Describe("Permission handler", func() {
	var (
		repo   *mockRepository
		router *chi.Mux
		code   permission.Code
	)

	BeforeEach(func() {
		repo = newMockRepository()
		service := permission.NewService(repo, orgDirectory(), testLogger())
		handler := permission.NewHandler(&transport.BaseHandler{Logger: testLogger()}, service)
		code = permission.ApproveCode(permission.ModuleAdvances, approval.StepHR)

		repo.add(&permission.Grant{ID: "admin", UserID: "admin", CompanyID: "c1", Code: permission.PermissionsManage, Scope: permission.ScopeAll})
		repo.add(&permission.Grant{ID: "hr-b1", UserID: "hr", CompanyID: "c1", Code: code, Scope: permission.ScopeBranch, BranchID: strPtr("b1")})

		router = chi.NewRouter()
		router.Use(middleware.UserContext)
		router.Route("/permissions", handler.Routes)
	})

	call := func(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set(middleware.HeaderUserID, userID)
		req.Header.Set(middleware.HeaderCompanyID, "c1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("lists the employees a grant reaches", func() {
		w := call(http.MethodGet, "/permissions/accessible-employees?code="+string(code), "hr", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp permission.AccessibleEmployeesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.EmployeeIDs).To(ContainElements("e1", "e3"))
		Expect(resp.EmployeeIDs).NotTo(ContainElement("y1"))
	})

	It("answers point checks", func() {
		w := call(http.MethodGet, "/permissions/can-access?code="+string(code)+"&employeeId=y1", "hr", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var access permission.Access
		Expect(json.NewDecoder(w.Body).Decode(&access)).To(Succeed())
		Expect(access.HasAccess).To(BeFalse())

		w = call(http.MethodGet, "/permissions/can-access?code="+string(code), "hr", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("shows grants to their holder and to managers only", func() {
		Expect(call(http.MethodGet, "/permissions/users/hr/grants", "hr", nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodGet, "/permissions/users/hr/grants", "admin", nil).Code).To(Equal(http.StatusOK))
		Expect(call(http.MethodGet, "/permissions/users/hr/grants", "e1", nil).Code).To(Equal(http.StatusForbidden))
	})

	It("adds and removes grants", func() {
		w := call(http.MethodPost, "/permissions/grants", "admin", permission.GrantBody{
			UserID:      "fin",
			Code:        "advances_approve_finance",
			Scope:       "custom",
			EmployeeIDs: []string{"e1"},
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created permission.Grant
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Scope).To(Equal(permission.ScopeCustom))

		w = call(http.MethodPut, "/permissions/grants/"+created.ID+"/employees", "admin", permission.EmployeesBody{EmployeeIDs: []string{"e1", "e3"}})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = call(http.MethodDelete, "/permissions/grants/"+created.ID, "admin", nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = call(http.MethodDelete, "/permissions/grants/"+created.ID, "admin", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("rejects bad scopes and non managers", func() {
		w := call(http.MethodPost, "/permissions/grants", "admin", permission.GrantBody{UserID: "fin", Code: string(code), Scope: "GALAXY"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = call(http.MethodPost, "/permissions/grants", "hr", permission.GrantBody{UserID: "fin", Code: string(code), Scope: "ALL"})
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("replaces a user's grants in bulk", func() {
		w := call(http.MethodPut, "/permissions/users/hr/grants", "admin", permission.ReplaceGrantsBody{
			Grants: []permission.GrantBody{{Code: string(code), Scope: "ALL"}},
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp permission.GrantsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Grants).To(HaveLen(1))
		Expect(resp.Grants[0].Scope).To(Equal(permission.ScopeAll))
		Expect(resp.Grants[0].UserID).To(Equal("hr"))
	})
})
