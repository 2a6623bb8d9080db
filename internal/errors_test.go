package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal"
)

var _ = Describe("AppError", func() {
	base := internal.NewInvalidStateError("request is closed", internal.ErrCodeRequestClosed)

	It("matches copies through errors.Is", func() {
		wrapped := fmt.Errorf("decide: %w", base.WithMessage("closed at HR"))

		Expect(errors.Is(wrapped, base)).To(BeTrue())
		Expect(errors.Is(wrapped, internal.NewInvalidStateError("x", internal.ErrCodeCannotCancel))).To(BeFalse())
	})

	It("leaves the sentinel untouched when deriving", func() {
		derived := base.WithMessage("other").WithCause(errors.New("cause"))

		Expect(base.Message).To(Equal("request is closed"))
		Expect(base.Cause).To(BeNil())
		Expect(errors.Unwrap(derived)).To(MatchError("cause"))
	})

	It("renders the HTTP body without the cause", func() {
		status, body := base.WithCause(errors.New("secret")).ToHTTPResponse()
		Expect(status).To(Equal(http.StatusConflict))

		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(MatchJSON(`{"error":{"type":"INVALID_STATE","code":"REQUEST_CLOSED","message":"request is closed"}}`))
	})

	It("maps types to status codes", func() {
		Expect(internal.NewInvalidTransitionError("x", internal.ErrCodeStepSkipped).StatusCode).To(Equal(http.StatusUnprocessableEntity))
		Expect(internal.NewConfigurationError("x", internal.ErrCodeMalformedChain).StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(internal.ErrMissingIdentity.StatusCode).To(Equal(http.StatusUnauthorized))
	})

	It("carries identity through the context", func() {
		ctx := internal.ContextWithIdentity(context.Background(), "u1", "c1")

		Expect(internal.UserIDFromContext(ctx)).To(Equal("u1"))
		Expect(internal.CompanyIDFromContext(ctx)).To(Equal("c1"))
		Expect(internal.UserIDFromContext(context.Background())).To(BeEmpty())
	})

	It("defaults a non-positive timeout to five seconds", func() {
		ctx, cancel := internal.WithTimeout(context.Background(), 0)
		defer cancel()

		deadline, ok := ctx.Deadline()
		Expect(ok).To(BeTrue())
		Expect(time.Until(deadline)).To(BeNumerically("~", 5*time.Second, time.Second))
	})
})
