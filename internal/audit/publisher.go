package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink persists audit events. Implementations: InMemorySink for tests,
// PostgresSink as a durable outbox, KafkaSink for downstream consumers.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher buffers events and hands them to a background worker. Emitting is
// fail-open: reconciliation must not stall because the audit sink is slow, so
// a full buffer drops the event and logs the drop instead of blocking the
// merge path.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

const defaultBuffer = 256

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, defaultBuffer),
		logger: logger,
	}
}

// Emit enqueues an event without blocking.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"entity_key", event.EntityKey,
		)
	}
}

// Run consumes the inbox and appends each event to the sink until ctx ends.
// Sink failures are logged and skipped; the trail is best-effort by design.
func (p *Publisher) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.inbox:
			if err := sink.Append(ctx, event); err != nil {
				p.logger.ErrorContext(ctx, "failed to append audit event",
					"action", event.Action,
					"entity_key", event.EntityKey,
					"error", err,
				)
			}
		}
	}
}
