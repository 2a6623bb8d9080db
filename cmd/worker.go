package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hr-approvals/internal/notification"
	"github.com/frahmantamala/hr-approvals/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background worker pools",
	Long:  `Start and manage worker pools for background jobs such as notification delivery.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start notification delivery worker pool",
	Long:  `Drain the Redis notification outbox and deliver queued approval notifications`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startNotificationWorker(); err != nil {
			fmt.Fprintf(os.Stderr, "Notification worker failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	maxWorkers  int
	pollTimeout time.Duration
)

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "workers", 0, "number of delivery workers (defaults to notification.workers)")
	notificationWorkerCmd.Flags().DurationVar(&pollTimeout, "poll-timeout", 0, "blocking pop timeout (defaults to notification.poll_timeout)")
	workerCmd.AddCommand(notificationWorkerCmd)
}

func startNotificationWorker() error {
	config, err := loadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !config.Redis.Enabled() {
		return fmt.Errorf("redis.addr is not configured, nothing to drain")
	}

	lg := logger.LoggerWrapper().With("component", "notification_worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := initOutbox(ctx, config.Redis, lg)
	defer queue.Close()
	if !queue.Enabled() {
		return fmt.Errorf("redis at %s is unreachable", config.Redis.Addr)
	}

	poolCfg := notification.PoolConfig{
		MaxWorkers:  config.Notification.Workers,
		PollTimeout: config.Notification.PollTimeout,
		RetryDelay:  config.Notification.RetryDelay,
	}
	if maxWorkers > 0 {
		poolCfg.MaxWorkers = maxWorkers
	}
	if pollTimeout > 0 {
		poolCfg.PollTimeout = pollTimeout
	}

	pool := notification.NewPool(queue, notification.NewLogDeliverer(lg), poolCfg, lg)
	lg.Info("notification worker started", "workers", poolCfg.MaxWorkers, "queue", config.Redis.QueueKey)

	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	<-ctx.Done()
	lg.Info("shutting down notification worker")
	select {
	case <-done:
	case <-time.After(config.Notification.DrainTimeout):
		lg.Warn("drain timeout exceeded, abandoning in-flight deliveries")
	}

	lg.Info("notification worker stopped", "delivered", pool.Delivered(), "failed", pool.Failed())
	return nil
}
