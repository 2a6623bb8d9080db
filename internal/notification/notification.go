package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindApprovalRequired Kind = "APPROVAL_REQUIRED"
	KindStepApproved     Kind = "STEP_APPROVED"
	KindRequestApproved  Kind = "REQUEST_APPROVED"
	KindRequestRejected  Kind = "REQUEST_REJECTED"
	KindRequestDelayed   Kind = "REQUEST_DELAYED"
	KindRequestCancelled Kind = "REQUEST_CANCELLED"
)

// Message is one notification for one recipient.
type Message struct {
	RecipientID string            `json:"recipient_id"`
	Kind        Kind              `json:"kind"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Sender delivers or enqueues a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Dispatcher fans messages out to every registered sender. Send failures are
// logged and never returned: a notification must not fail the operation that
// produced it.
type Dispatcher struct {
	senders []Sender
	logger  *slog.Logger
	mu      sync.RWMutex
}

func NewDispatcher(logger *slog.Logger, senders ...Sender) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		logger:  logger,
	}
}

func (d *Dispatcher) Register(sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.senders = append(d.senders, sender)
	d.logger.Info("notification sender registered", "total_senders", len(d.senders))
}

// Dispatch sends every message synchronously and returns how many sends failed.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []Message) int {
	d.mu.RLock()
	senders := append([]Sender(nil), d.senders...)
	d.mu.RUnlock()

	if len(messages) == 0 || len(senders) == 0 {
		return 0
	}

	failed := 0
	for _, msg := range messages {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now()
		}
		for _, sender := range senders {
			if err := sender.Send(ctx, msg); err != nil {
				failed++
				d.logger.Error("failed to send notification",
					"recipient_id", msg.RecipientID,
					"kind", msg.Kind,
					"request_id", msg.Metadata["request_id"],
					"error", err)
			}
		}
	}

	d.logger.Debug("notifications dispatched",
		"messages", len(messages),
		"senders", len(senders),
		"failed", failed)
	return failed
}

// LogSender writes messages to the structured log.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("notification",
		"recipient_id", msg.RecipientID,
		"kind", msg.Kind,
		"title", msg.Title,
		"body", msg.Body,
		"request_id", msg.Metadata["request_id"])
	return nil
}
