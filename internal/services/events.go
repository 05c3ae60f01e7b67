package services

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/log"
)

// EventPublisher announces record writes. *amqp.Client implements it.
type EventPublisher interface {
	PublishRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error
}

// Invalidator drops derived data after a write. *ReportService implements it.
type Invalidator interface {
	Invalidate()
}

// notifier fans a write out to the event bus and the report cache. Both are
// optional; a failed publish is logged and never fails the write.
type notifier struct {
	publisher   EventPublisher
	invalidator Invalidator
	logger      *log.Logger
}

func (n notifier) changed(ctx context.Context, msg *amqp.RecordChangedMessage) {
	if n.invalidator != nil {
		n.invalidator.Invalidate()
	}
	if n.publisher == nil {
		n.logger.DebugContext(ctx, "AMQP publisher not configured, skipping record changed event",
			"kind", msg.Kind, "id", msg.ID)
		return
	}
	if err := n.publisher.PublishRecordChanged(ctx, msg); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish record changed event",
			"kind", msg.Kind,
			"id", msg.ID,
			log.FieldEventID, msg.EventID,
			log.FieldError, err)
	}
}

func action(created bool) amqp.Action {
	if created {
		return amqp.ActionCreated
	}
	return amqp.ActionUpdated
}

// Option configures the optional collaborators of a service.
type Option func(*notifier)

func WithPublisher(p EventPublisher) Option {
	return func(n *notifier) { n.publisher = p }
}

func WithInvalidator(i Invalidator) Option {
	return func(n *notifier) { n.invalidator = i }
}

func WithLogger(l *log.Logger) Option {
	return func(n *notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

func newNotifier(component string, opts []Option) notifier {
	n := notifier{logger: log.New(log.DefaultConfig())}
	for _, opt := range opts {
		opt(&n)
	}
	n.logger = n.logger.WithComponent(component)
	return n
}
