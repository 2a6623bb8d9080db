package approval_test

import (
	"context"
	"errors"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/approval"
)

type mockConfigRepository struct {
	configs  map[string]*approval.ChainConfig
	getError error
	upserts  int
}

func newMockConfigRepository() *mockConfigRepository {
	return &mockConfigRepository{configs: make(map[string]*approval.ChainConfig)}
}

func (m *mockConfigRepository) GetChainConfig(_ context.Context, companyID string, requestType approval.RequestType) (*approval.ChainConfig, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	cfg, ok := m.configs[companyID+"/"+string(requestType)]
	if !ok {
		return nil, approval.ErrChainConfigNotFound
	}
	return cfg, nil
}

func (m *mockConfigRepository) UpsertChainConfig(_ context.Context, cfg *approval.ChainConfig) error {
	m.upserts++
	m.configs[cfg.CompanyID+"/"+string(cfg.RequestType)] = cfg
	return nil
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

var _ = Describe("Planner", func() {
	var (
		repo    *mockConfigRepository
		planner *approval.Planner
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = newMockConfigRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		planner = approval.NewPlanner(repo, logger)
		ctx = context.Background()
	})

	Context("when the company has no configuration", func() {
		It("should use the default chain and never escalate", func() {
			// Given
			pc := approval.Context{RequestType: approval.RequestTypeAdvance, CompanyID: "c1", Amount: int64Ptr(999_999_999)}

			// When
			chain, err := planner.Plan(ctx, pc)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepHR, approval.StepCompleted}))
		})

		It("should fall back to MANAGER then HR for unknown request types", func() {
			chain, err := planner.Plan(ctx, approval.Context{RequestType: "CUSTODY", CompanyID: "c1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepHR, approval.StepCompleted}))
		})
	})

	Context("with amount thresholds", func() {
		BeforeEach(func() {
			repo.configs["c1/RAISE"] = &approval.ChainConfig{
				CompanyID:              "c1",
				RequestType:            approval.RequestTypeRaise,
				BaseSteps:              []approval.Step{approval.StepManager, approval.StepHR},
				FinanceAmountThreshold: int64Ptr(1000),
				CEOAmountThreshold:     int64Ptr(5000),
			}
		})

		It("should keep the base chain below the finance threshold", func() {
			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeRaise, CompanyID: "c1", Amount: int64Ptr(1000)})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepHR, approval.StepCompleted}))
		})

		It("should append FINANCE above the first threshold", func() {
			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeRaise, CompanyID: "c1", Amount: int64Ptr(1001)})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepHR, approval.StepFinance, approval.StepCompleted}))
		})

		It("should append FINANCE then CEO above both thresholds", func() {
			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeRaise, CompanyID: "c1", Amount: int64Ptr(7000)})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{
				approval.StepManager, approval.StepHR, approval.StepFinance, approval.StepCEO, approval.StepCompleted,
			}))
		})

		It("should not escalate requests without an amount", func() {
			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeRaise, CompanyID: "c1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(3))
		})

		It("should not apply one company's thresholds to another", func() {
			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeRaise, CompanyID: "c2", Amount: int64Ptr(7000)})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(3))
		})
	})

	Context("with days thresholds", func() {
		It("should escalate leave-like requests by duration", func() {
			repo.configs["c1/LEAVE"] = &approval.ChainConfig{
				CompanyID:            "c1",
				RequestType:          approval.RequestTypeLeave,
				BaseSteps:            []approval.Step{approval.StepManager},
				FinanceDaysThreshold: intPtr(10),
				CEODaysThreshold:     intPtr(30),
			}

			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeLeave, CompanyID: "c1", Days: intPtr(31)})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepFinance, approval.StepCEO, approval.StepCompleted}))
		})
	})

	Context("when FINANCE is already in the base chain", func() {
		It("should not append it twice", func() {
			repo.configs["c1/ADVANCE"] = &approval.ChainConfig{
				CompanyID:              "c1",
				RequestType:            approval.RequestTypeAdvance,
				BaseSteps:              []approval.Step{approval.StepManager, approval.StepFinance, approval.StepHR},
				FinanceAmountThreshold: int64Ptr(10),
			}

			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeAdvance, CompanyID: "c1", Amount: int64Ptr(50)})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepFinance, approval.StepHR, approval.StepCompleted}))
		})
	})

	Context("when the stored configuration is malformed", func() {
		It("should fall back to the default when the store reports it", func() {
			repo.getError = approval.ErrMalformedChain

			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeLetter, CompanyID: "c1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepHR, approval.StepCompleted}))
		})

		It("should fall back to the default when the config does not validate", func() {
			repo.configs["c1/LETTER"] = &approval.ChainConfig{
				CompanyID:   "c1",
				RequestType: approval.RequestTypeLetter,
				BaseSteps:   []approval.Step{approval.StepHR, approval.StepHR},
			}

			chain, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeLetter, CompanyID: "c1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(3))
		})
	})

	Context("when the store fails", func() {
		It("should return the error", func() {
			repo.getError = errors.New("connection refused")

			_, err := planner.Plan(ctx, approval.Context{RequestType: approval.RequestTypeAdvance, CompanyID: "c1"})
			Expect(err).To(MatchError("connection refused"))
		})
	})

	Describe("Configure", func() {
		It("should store a valid configuration", func() {
			err := planner.Configure(ctx, &approval.ChainConfig{
				CompanyID:   "c1",
				RequestType: approval.RequestTypeAdvance,
				BaseSteps:   []approval.Step{approval.StepHR},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.upserts).To(Equal(1))
		})

		It("should refuse a base containing COMPLETED", func() {
			err := planner.Configure(ctx, &approval.ChainConfig{
				CompanyID:   "c1",
				RequestType: approval.RequestTypeAdvance,
				BaseSteps:   []approval.Step{approval.StepManager, approval.StepCompleted},
			})
			Expect(errors.Is(err, approval.ErrMalformedChain)).To(BeTrue())
			Expect(repo.upserts).To(BeZero())
		})
	})
})
