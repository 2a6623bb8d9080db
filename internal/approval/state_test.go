package approval_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/approval"
)

var allSteps = []approval.Step{
	approval.StepManager,
	approval.StepHR,
	approval.StepFinance,
	approval.StepCEO,
	approval.StepCompleted,
}

func mustChain(steps ...approval.Step) approval.Chain {
	chain, err := approval.NewChain(steps...)
	Expect(err).NotTo(HaveOccurred())
	return chain
}

var _ = Describe("State machine", func() {
	var (
		short approval.Chain
		full  approval.Chain
	)

	BeforeEach(func() {
		short = mustChain(approval.StepManager, approval.StepHR)
		full = mustChain(approval.StepManager, approval.StepHR, approval.StepFinance, approval.StepCEO)
	})

	Describe("First", func() {
		It("should return the first element", func() {
			Expect(short.First()).To(Equal(approval.StepManager))
		})
	})

	Describe("Next", func() {
		It("should return COMPLETED after the last real step of every chain", func() {
			chains := []approval.Chain{
				short,
				full,
				mustChain(approval.StepHR),
				mustChain(approval.StepCEO, approval.StepManager),
			}
			for _, chain := range chains {
				base := chain.Base()
				next, err := chain.Next(base[len(base)-1])
				Expect(err).NotTo(HaveOccurred())
				Expect(next).To(Equal(approval.StepCompleted))
			}
		})

		It("should follow chain order rather than a global order", func() {
			chain := mustChain(approval.StepHR, approval.StepManager)
			next, err := chain.Next(approval.StepHR)
			Expect(err).NotTo(HaveOccurred())
			Expect(next).To(Equal(approval.StepManager))
		})

		It("should fail for a step outside the chain", func() {
			_, err := short.Next(approval.StepCEO)
			Expect(errors.Is(err, approval.ErrStepNotInChain)).To(BeTrue())
		})

		It("should fail after COMPLETED", func() {
			_, err := short.Next(approval.StepCompleted)
			Expect(errors.Is(err, approval.ErrStepNotInChain)).To(BeTrue())
		})
	})

	Describe("Previous", func() {
		It("should return the step before", func() {
			prev, ok := full.Previous(approval.StepFinance)
			Expect(ok).To(BeTrue())
			Expect(prev).To(Equal(approval.StepHR))

			_, ok = full.Previous(approval.StepManager)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("IsComplete", func() {
		It("should only be true at COMPLETED", func() {
			Expect(short.IsComplete(approval.StepCompleted)).To(BeTrue())
			Expect(short.IsComplete(approval.StepManager)).To(BeFalse())
			Expect(short.IsComplete(approval.StepHR)).To(BeFalse())
		})
	})

	Describe("ValidateTransition", func() {
		It("should fail unless the target is the next step or COMPLETED", func() {
			chains := []approval.Chain{short, full, mustChain(approval.StepFinance, approval.StepManager)}
			for _, chain := range chains {
				for _, from := range chain.Base() {
					next, err := chain.Next(from)
					Expect(err).NotTo(HaveOccurred())
					for _, to := range allSteps {
						err := chain.ValidateTransition(from, to)
						if to == next || to == approval.StepCompleted {
							Expect(err).NotTo(HaveOccurred(), "%s -> %s in %s", from, to, chain)
						} else {
							Expect(err).To(HaveOccurred(), "%s -> %s in %s", from, to, chain)
						}
					}
				}
			}
		})

		It("should reject skipping HR on the way to CEO", func() {
			err := full.ValidateTransition(approval.StepManager, approval.StepCEO)
			Expect(errors.Is(err, approval.ErrStepSkipped)).To(BeTrue())
		})

		It("should allow rejection from any step", func() {
			Expect(full.ValidateTransition(approval.StepFinance, approval.StepCompleted)).To(Succeed())
		})

		It("should reject transitions out of COMPLETED", func() {
			err := short.ValidateTransition(approval.StepCompleted, approval.StepCompleted)
			Expect(errors.Is(err, approval.ErrStepNotInChain)).To(BeTrue())
		})

		It("should reject a source step outside the chain", func() {
			err := short.ValidateTransition(approval.StepFinance, approval.StepCompleted)
			Expect(errors.Is(err, approval.ErrStepNotInChain)).To(BeTrue())
		})
	})
})
