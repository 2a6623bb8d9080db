package approval_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/transport"
	"github.com/frahmantamala/hr-approvals/internal/transport/middleware"
)

var _ = Describe("Chain config handler", func() {
	var (
		repo   *mockConfigRepository
		router *chi.Mux
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockConfigRepository()
		handler := approval.NewHandler(&transport.BaseHandler{Logger: logger}, approval.NewPlanner(repo, logger))

		router = chi.NewRouter()
		router.Use(middleware.UserContext)
		router.Get("/chain-configs/{requestType}", handler.GetChainConfig)
		router.Put("/chain-configs/{requestType}", handler.PutChainConfig)
	})

	call := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set(middleware.HeaderUserID, "admin")
		req.Header.Set(middleware.HeaderCompanyID, "c1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns the default chain when nothing is stored", func() {
		w := call(http.MethodGet, "/chain-configs/advance", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		var cfg approval.ChainConfig
		Expect(json.NewDecoder(w.Body).Decode(&cfg)).To(Succeed())
		Expect(cfg.RequestType).To(Equal(approval.RequestTypeAdvance))
		Expect(cfg.BaseSteps).To(Equal([]approval.Step{approval.StepManager, approval.StepHR}))
	})

	It("stores a valid configuration for the caller's company", func() {
		w := call(http.MethodPut, "/chain-configs/RAISE", approval.ChainConfigBody{
			BaseSteps:          []approval.Step{approval.StepHR},
			CEOAmountThreshold: int64Ptr(1_000_000),
		})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(repo.upserts).To(Equal(1))
		stored := repo.configs["c1/RAISE"]
		Expect(stored.BaseSteps).To(Equal([]approval.Step{approval.StepHR}))
		Expect(stored.UpdatedBy).To(Equal("admin"))
	})

	It("rejects a malformed chain with 400 and stores nothing", func() {
		w := call(http.MethodPut, "/chain-configs/RAISE", approval.ChainConfigBody{
			BaseSteps: []approval.Step{approval.StepHR, approval.StepHR},
		})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("MALFORMED_CHAIN"))
		Expect(repo.upserts).To(BeZero())
	})

	It("rejects unknown request types", func() {
		w := call(http.MethodGet, "/chain-configs/bonus", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
