package notification

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Source yields queued messages. Receive returns nil, nil when nothing
// arrived within timeout.
type Source interface {
	Receive(ctx context.Context, timeout time.Duration) (*Message, error)
}

// Deliverer hands a message to the final transport (push, email, ...).
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) error
}

// LogDeliverer records deliveries in the log. Push and email providers are
// outside this service.
type LogDeliverer struct {
	logger *slog.Logger
}

func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

func (d *LogDeliverer) Deliver(_ context.Context, msg Message) error {
	d.logger.Info("notification delivered",
		"recipient_id", msg.RecipientID,
		"kind", msg.Kind,
		"title", msg.Title,
		"request_id", msg.Metadata["request_id"])
	return nil
}

type Worker struct {
	ID         int
	WorkerPool chan chan Message
	JobChannel chan Message
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Message, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Message),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, deliver func(Message)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case msg := <-w.JobChannel:
				w.Logger.Debug("worker delivering notification", "worker_id", w.ID, "recipient_id", msg.RecipientID)
				deliver(msg)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers  int
	PollTimeout time.Duration
	RetryDelay  time.Duration
}

// Pool drains a Source with a fixed set of workers.
type Pool struct {
	source      Source
	deliverer   Deliverer
	logger      *slog.Logger
	maxWorkers  int
	pollTimeout time.Duration
	retryDelay  time.Duration

	workerPool chan chan Message
	wg         sync.WaitGroup

	delivered atomic.Int64
	failed    atomic.Int64
}

func NewPool(source Source, deliverer Deliverer, cfg PoolConfig, logger *slog.Logger) *Pool {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Pool{
		source:      source,
		deliverer:   deliverer,
		logger:      logger,
		maxWorkers:  maxWorkers,
		pollTimeout: pollTimeout,
		retryDelay:  retryDelay,
		workerPool:  make(chan chan Message, maxWorkers),
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight deliveries.
func (p *Pool) Run(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(context.Background())
	for i := 0; i < p.maxWorkers; i++ {
		NewWorker(i, p.workerPool, p.logger).Start(workerCtx, &p.wg, p.deliver)
	}

	p.logger.Info("notification worker pool started",
		"max_workers", p.maxWorkers,
		"poll_timeout", p.pollTimeout)

	for ctx.Err() == nil {
		msg, err := p.source.Receive(ctx, p.pollTimeout)
		if ctx.Err() != nil {
			if msg != nil {
				p.deliver(*msg)
			}
			break
		}
		if err != nil {
			p.logger.Error("failed to read notification outbox", "error", err)
			select {
			case <-time.After(p.retryDelay):
			case <-ctx.Done():
			}
			continue
		}
		if msg == nil {
			continue
		}

		select {
		case jobChannel := <-p.workerPool:
			jobChannel <- *msg
		case <-ctx.Done():
			// Already popped from the outbox, deliver it before stopping.
			p.deliver(*msg)
		}
	}

	cancel()
	p.wg.Wait()
	p.logger.Info("notification worker pool stopped",
		"delivered", p.delivered.Load(),
		"failed", p.failed.Load())
}

func (p *Pool) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.deliverer.Deliver(ctx, msg); err != nil {
		p.failed.Add(1)
		p.logger.Error("failed to deliver notification",
			"recipient_id", msg.RecipientID,
			"kind", msg.Kind,
			"error", err)
		return
	}
	p.delivered.Add(1)
}

func (p *Pool) Delivered() int64 {
	return p.delivered.Load()
}

func (p *Pool) Failed() int64 {
	return p.failed.Load()
}
