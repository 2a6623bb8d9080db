package notification_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-approvals/internal/notification"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx      context.Context
		messages []notification.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		messages = []notification.Message{
			{RecipientID: "e1", Kind: notification.KindRequestApproved, Title: "Approved"},
			{RecipientID: "hr1", Kind: notification.KindApprovalRequired, Title: "Waiting"},
		}
	})

	It("should send every message through every sender", func() {
		// Given
		first, second := &recorder{}, &recorder{}
		dispatcher := notification.NewDispatcher(testLogger(), first)
		dispatcher.Register(second)

		// When
		failed := dispatcher.Dispatch(ctx, messages)

		// Then
		Expect(failed).To(BeZero())
		Expect(first.received()).To(HaveLen(2))
		Expect(second.received()).To(HaveLen(2))
		Expect(first.received()[0].CreatedAt).NotTo(BeZero())
	})

	It("should swallow sender failures and keep going", func() {
		broken := notification.SenderFunc(func(context.Context, notification.Message) error {
			return errors.New("push provider down")
		})
		healthy := &recorder{}
		dispatcher := notification.NewDispatcher(testLogger(), broken, healthy)

		failed := dispatcher.Dispatch(ctx, messages)

		Expect(failed).To(Equal(2))
		Expect(healthy.received()).To(HaveLen(2))
	})

	It("should do nothing without messages", func() {
		rec := &recorder{}
		dispatcher := notification.NewDispatcher(testLogger(), rec)

		Expect(dispatcher.Dispatch(ctx, nil)).To(BeZero())
		Expect(rec.received()).To(BeEmpty())
	})

	It("should accept the log sender", func() {
		dispatcher := notification.NewDispatcher(testLogger(), notification.NewLogSender(testLogger()))
		Expect(dispatcher.Dispatch(ctx, messages)).To(BeZero())
	})
})
