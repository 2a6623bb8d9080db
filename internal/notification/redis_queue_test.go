package notification_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/hr-approvals/internal/notification"
)

var _ = Describe("RedisQueue", func() {
	var (
		server *miniredis.Miniredis
		client *redis.Client
		queue  *notification.RedisQueue
		ctx    context.Context
	)

	BeforeEach(func() {
		server = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		queue = notification.NewRedisQueue(client, "test:notifications", testLogger())
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
	})

	It("should deliver messages in the order they were sent", func() {
		// Given
		Expect(queue.Send(ctx, notification.Message{RecipientID: "e1", Kind: notification.KindRequestApproved})).To(Succeed())
		Expect(queue.Send(ctx, notification.Message{
			RecipientID: "e2",
			Kind:        notification.KindRequestRejected,
			Metadata:    map[string]string{"request_id": "r1"},
		})).To(Succeed())

		length, err := queue.Len(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(length).To(Equal(int64(2)))

		// When
		first, err := queue.Receive(ctx, time.Second)
		Expect(err).NotTo(HaveOccurred())
		second, err := queue.Receive(ctx, time.Second)
		Expect(err).NotTo(HaveOccurred())

		// Then
		Expect(first.RecipientID).To(Equal("e1"))
		Expect(second.RecipientID).To(Equal("e2"))
		Expect(second.Metadata).To(HaveKeyWithValue("request_id", "r1"))
	})

	It("should return nothing when the timeout elapses", func() {
		msg, err := queue.Receive(ctx, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(BeNil())
	})

	It("should skip entries that are not messages", func() {
		_, err := server.Lpush("test:notifications", "not-json")
		Expect(err).NotTo(HaveOccurred())

		msg, err := queue.Receive(ctx, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(BeNil())
	})

	It("should degrade to a no-op without a client", func() {
		disabled := notification.NewRedisQueue(nil, "", testLogger())

		Expect(disabled.Enabled()).To(BeFalse())
		Expect(disabled.Send(ctx, notification.Message{RecipientID: "e1"})).To(Succeed())
		msg, err := disabled.Receive(ctx, time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(BeNil())
		Expect(disabled.Close()).To(Succeed())
	})

	It("should disable itself when redis is unreachable", func() {
		addr := server.Addr()
		server.Close()

		q := notification.ConnectRedisQueue(ctx, &redis.Options{Addr: addr}, "", testLogger())
		Expect(q.Enabled()).To(BeFalse())
	})
})
