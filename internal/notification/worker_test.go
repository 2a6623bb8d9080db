package notification_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/hr-approvals/internal/notification"
)

var _ = Describe("Pool", func() {
	It("should deliver every queued message with several workers", func() {
		// Given
		source := &chanSource{ch: make(chan notification.Message, 20)}
		for i := 0; i < 20; i++ {
			source.ch <- notification.Message{RecipientID: fmt.Sprintf("e%d", i)}
		}
		deliverer := &recorder{}
		pool := notification.NewPool(source, deliverer, notification.PoolConfig{
			MaxWorkers:  3,
			PollTimeout: 20 * time.Millisecond,
		}, testLogger())

		// When
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			pool.Run(ctx)
		}()

		// Then
		Eventually(func() int { return len(deliverer.received()) }).Should(Equal(20))
		cancel()
		Eventually(done).Should(BeClosed())
		Expect(pool.Delivered()).To(Equal(int64(20)))
		Expect(pool.Failed()).To(BeZero())
	})

	It("should count failed deliveries", func() {
		source := &chanSource{ch: make(chan notification.Message, 2)}
		source.ch <- notification.Message{RecipientID: "e1"}
		source.ch <- notification.Message{RecipientID: "e2"}
		deliverer := &recorder{err: errors.New("smtp refused")}
		pool := notification.NewPool(source, deliverer, notification.PoolConfig{
			MaxWorkers:  1,
			PollTimeout: 20 * time.Millisecond,
		}, testLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			pool.Run(ctx)
		}()

		Eventually(pool.Failed).Should(Equal(int64(2)))
		cancel()
		Eventually(done).Should(BeClosed())
		Expect(pool.Delivered()).To(BeZero())
	})

	It("should drain the redis outbox", func() {
		server := miniredis.RunT(GinkgoT())
		client := redis.NewClient(&redis.Options{Addr: server.Addr()})
		defer client.Close()

		queue := notification.NewRedisQueue(client, "", testLogger())
		dispatcher := notification.NewDispatcher(testLogger(), queue)
		dispatcher.Dispatch(context.Background(), []notification.Message{
			{RecipientID: "e1", Kind: notification.KindApprovalRequired},
			{RecipientID: "e2", Kind: notification.KindApprovalRequired},
		})

		deliverer := &recorder{}
		pool := notification.NewPool(queue, deliverer, notification.PoolConfig{
			MaxWorkers:  2,
			PollTimeout: time.Second,
		}, testLogger())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			pool.Run(ctx)
		}()

		Eventually(func() int { return len(deliverer.received()) }, 5*time.Second).Should(Equal(2))
		cancel()
		Eventually(done, 5*time.Second).Should(BeClosed())
	})
})
