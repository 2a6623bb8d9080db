package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultQueueKey = "hr-approvals:notifications"

// RedisQueue is an outbox list in redis: Send pushes on the left, Receive pops
// from the right. A queue without a client drops messages, so the service
// keeps running when redis is not configured.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, key string, logger *slog.Logger) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{
		client: client,
		key:    key,
		logger: logger,
	}
}

// ConnectRedisQueue pings addr and returns a queue without a client when redis
// is unreachable.
func ConnectRedisQueue(ctx context.Context, opts *redis.Options, key string, logger *slog.Logger) *RedisQueue {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, notification outbox disabled",
			"addr", opts.Addr,
			"error", err)
		_ = client.Close()
		return NewRedisQueue(nil, key, logger)
	}
	return NewRedisQueue(client, key, logger)
}

func (q *RedisQueue) Enabled() bool {
	return q.client != nil
}

func (q *RedisQueue) Send(ctx context.Context, msg Message) error {
	if q.client == nil {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

// Receive blocks up to timeout for the next message. It returns nil, nil when
// the timeout elapses or the queue is disabled.
func (q *RedisQueue) Receive(ctx context.Context, timeout time.Duration) (*Message, error) {
	if q.client == nil {
		return nil, nil
	}
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// BRPOP answers with [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of %d elements", len(res))
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		q.logger.Error("dropping undecodable notification", "error", err)
		return nil, nil
	}
	return &msg, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	if q.client == nil {
		return 0, nil
	}
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	if q.client == nil {
		return nil
	}
	return q.client.Close()
}
