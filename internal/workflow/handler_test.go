package workflow_test

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
	"github.com/frahmantamala/hr-approvals/internal/workflow"
)

type errorBody struct {
	Error struct {
		Type string `json:"type"`
		Code string `json:"code"`
	} `json:"error"`
}

var _ = Describe("Handler", func() {
	var (
		repo   *memRepo
		authz  *fakeAuthorizer
		router *chi.Mux
	)

	BeforeEach(func() {
		repo = newMemRepo()
		authz = newFakeAuthorizer()
		coord := workflow.NewCoordinator(workflow.Strategy[testPayload]{
			Kind:   approval.RequestTypeAdvance,
			Module: permission.ModuleAdvances,
			Label:  "advance",
		}, workflow.Deps{
			Repository: repo,
			Planner:    fixedPlanner{financeAbove: 5_000_000, ceoAbove: 10_000_000},
			Authorizer: authz,
			Employees: fakeEmployees{
				"e1": {ID: "e1", CompanyID: "c1", ManagerID: strPtr("m1"), IsActive: true},
				"m1": {ID: "m1", CompanyID: "c1", IsActive: true},
			},
			Notifier: &captureNotifier{},
			Logger:   testLogger(),
		})
		authz.grant(advanceCode(approval.StepHR), "hr", "e1")

		handler := workflow.NewHandler[testPayload](&transport.BaseHandler{Logger: testLogger()}, coord)
		router = chi.NewRouter()
		router.Use(middleware.UserContext)
		router.Route("/advances", handler.Routes)
	})

	call := func(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			switch b := body.(type) {
			case string:
				buf.WriteString(b)
			default:
				Expect(json.NewEncoder(&buf).Encode(b)).To(Succeed())
			}
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		if userID != "" {
			req.Header.Set(middleware.HeaderUserID, userID)
			req.Header.Set(middleware.HeaderCompanyID, "c1")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeRequest := func(w *httptest.ResponseRecorder) *workflow.Request {
		var req workflow.Request
		Expect(json.NewDecoder(w.Body).Decode(&req)).To(Succeed())
		return &req
	}

	decodeError := func(w *httptest.ResponseRecorder) errorBody {
		var body errorBody
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body
	}

	create := func() *workflow.Request {
		w := call(http.MethodPost, "/advances/", "e1", testPayload{Amount: 1_000_000})
		Expect(w.Code).To(Equal(http.StatusCreated))
		return decodeRequest(w)
	}

	It("rejects calls without identity headers", func() {
		w := call(http.MethodPost, "/advances/", "", testPayload{Amount: 1_000_000})

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(decodeError(w).Error.Code).To(Equal("MISSING_IDENTITY"))
	})

	It("creates a request at the first step of its chain", func() {
		req := create()

		Expect(req.SubjectID).To(Equal("e1"))
		Expect(req.CurrentStep).To(Equal(approval.StepManager))
		Expect(req.Status).To(Equal(workflow.StatusPending))
	})

	It("returns 400 on a malformed body", func() {
		w := call(http.MethodPost, "/advances/", "e1", "{not json")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 400 when the payload fails validation", func() {
		w := call(http.MethodPost, "/advances/", "e1", testPayload{Amount: 0})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(w).Error.Code).To(Equal("INVALID_PAYLOAD"))
	})

	It("walks a request through decisions and exposes its history", func() {
		created := create()
		path := "/advances/" + created.ID

		w := call(http.MethodPost, path+"/decisions", "m1", workflow.DecisionBody{Step: "manager", Decision: "approved"})
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeRequest(w).CurrentStep).To(Equal(approval.StepHR))

		w = call(http.MethodGet, "/advances/inbox?step=HR", "hr", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var inbox workflow.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&inbox)).To(Succeed())
		Expect(inbox.Items).To(HaveLen(1))
		Expect(inbox.Items[0].ID).To(Equal(created.ID))

		w = call(http.MethodPost, path+"/decisions", "hr", workflow.DecisionBody{Step: "HR", Decision: "APPROVED", Notes: "ok"})
		Expect(w.Code).To(Equal(http.StatusOK))
		done := decodeRequest(w)
		Expect(done.Status).To(Equal(workflow.StatusApproved))
		Expect(done.CurrentStep).To(Equal(approval.StepCompleted))

		w = call(http.MethodGet, path+"/history", "e1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var history workflow.HistoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&history)).To(Succeed())
		Expect(history.Entries).To(HaveLen(2))
		Expect(history.Entries[1].Notes).To(Equal("ok"))
	})

	It("maps domain errors to their status codes", func() {
		created := create()
		path := "/advances/" + created.ID

		w := call(http.MethodPost, path+"/decisions", "m1", workflow.DecisionBody{Step: "MANAGER", Decision: "MAYBE"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(w).Error.Code).To(Equal("INVALID_DECISION"))

		w = call(http.MethodPost, path+"/decisions", "hr", workflow.DecisionBody{Step: "HR", Decision: "APPROVED"})
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(decodeError(w).Error.Code).To(Equal("STEP_MISMATCH"))

		w = call(http.MethodGet, path, "stranger", nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		w = call(http.MethodGet, "/advances/missing", "e1", nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))

		w = call(http.MethodGet, "/advances/inbox?step=BOARD", "hr", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("lets the owner read, list and cancel", func() {
		created := create()

		w := call(http.MethodGet, "/advances/"+created.ID, "e1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = call(http.MethodGet, "/advances/mine?limit=5", "e1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var mine workflow.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&mine)).To(Succeed())
		Expect(mine.Items).To(HaveLen(1))
		Expect(mine.Limit).To(Equal(5))

		w = call(http.MethodPost, "/advances/"+created.ID+"/cancel", "e1", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(decodeRequest(w).Status).To(Equal(workflow.StatusCancelled))
	})

	It("lists an employee's requests for approvers covering them", func() {
		create()

		w := call(http.MethodGet, "/advances/employees/e1", "stranger", nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		w = call(http.MethodGet, "/advances/employees/e1?limit=10", "hr", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list workflow.ListResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Items).To(HaveLen(1))
		Expect(list.Limit).To(Equal(10))
	})

	It("guards stats behind the view permission", func() {
		create()

		w := call(http.MethodGet, "/advances/stats", "e1", nil)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		authz.grant(permission.AdvancesView, "auditor")
		w = call(http.MethodGet, "/advances/stats", "auditor", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var stats workflow.Stats
		Expect(json.NewDecoder(w.Body).Decode(&stats)).To(Succeed())
		Expect(stats.Total).To(Equal(int64(1)))
		Expect(stats.ByStatus[workflow.StatusPending]).To(Equal(int64(1)))
	})
})
