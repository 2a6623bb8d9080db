package approval_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/approval"
)

var _ = Describe("Chain", func() {
	Describe("NewChain", func() {
		It("should append the COMPLETED sentinel", func() {
			chain, err := approval.NewChain(approval.StepManager, approval.StepHR)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepHR, approval.StepCompleted}))
		})

		It("should reject an empty base", func() {
			_, err := approval.NewChain()
			Expect(errors.Is(err, approval.ErrMalformedChain)).To(BeTrue())
		})

		It("should reject duplicate steps", func() {
			_, err := approval.NewChain(approval.StepManager, approval.StepManager)
			Expect(errors.Is(err, approval.ErrMalformedChain)).To(BeTrue())
		})

		It("should reject COMPLETED inside the base", func() {
			_, err := approval.NewChain(approval.StepManager, approval.StepCompleted, approval.StepHR)
			Expect(errors.Is(err, approval.ErrMalformedChain)).To(BeTrue())
		})
	})

	Describe("ParseChain", func() {
		It("should round trip the stored form", func() {
			chain, err := approval.NewChain(approval.StepManager, approval.StepHR, approval.StepFinance)
			Expect(err).NotTo(HaveOccurred())

			parsed, err := approval.ParseChain(chain.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(chain))
		})

		It("should reject unknown steps on load", func() {
			_, err := approval.ParseChain("MANAGER,DIRECTOR,COMPLETED")
			Expect(errors.Is(err, approval.ErrMalformedChain)).To(BeTrue())
		})

		It("should reject a chain without the sentinel", func() {
			_, err := approval.ParseChain("MANAGER,HR")
			Expect(errors.Is(err, approval.ErrMalformedChain)).To(BeTrue())
		})
	})

	Describe("Scan", func() {
		It("should scan bytes and validate them", func() {
			var chain approval.Chain
			Expect(chain.Scan([]byte("MANAGER,COMPLETED"))).To(Succeed())
			Expect(chain).To(Equal(approval.Chain{approval.StepManager, approval.StepCompleted}))

			Expect(chain.Scan("COMPLETED")).NotTo(Succeed())
		})
	})
})

var _ = Describe("ParseVerdict", func() {
	It("should accept the three verdicts case insensitively", func() {
		d, err := approval.ParseVerdict("approved")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(approval.DecisionApproved))

		d, err = approval.ParseVerdict("DELAYED")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(approval.DecisionDelayed))
	})

	It("should refuse PENDING and unknown values", func() {
		_, err := approval.ParseVerdict("PENDING")
		Expect(errors.Is(err, approval.ErrInvalidDecision)).To(BeTrue())

		_, err = approval.ParseVerdict("maybe")
		Expect(errors.Is(err, approval.ErrInvalidDecision)).To(BeTrue())
	})
})
