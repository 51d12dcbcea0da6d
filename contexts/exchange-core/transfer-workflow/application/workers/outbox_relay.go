package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "resupply/contexts/exchange-core/transfer-workflow/application"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

// OutboxRelay publishes pending transfer lifecycle events to the bus.
// Rows are marked published only after a successful publish, so a
// crash between the two replays the event; consumers dedup by event ID.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("transfer outbox list failed",
			"event", "transfer_outbox_list_failed",
			"module", "exchange-core/transfer-workflow",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("transfer outbox decode failed",
				"event", "transfer_outbox_decode_failed",
				"module", "exchange-core/transfer-workflow",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("transfer outbox publish failed",
				"event", "transfer_outbox_publish_failed",
				"module", "exchange-core/transfer-workflow",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"topic", topic,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("transfer outbox mark published failed",
				"event", "transfer_outbox_mark_published_failed",
				"module", "exchange-core/transfer-workflow",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("transfer outbox relay cycle completed",
			"event", "transfer_outbox_relay_completed",
			"module", "exchange-core/transfer-workflow",
			"layer", "worker",
			"published_count", len(pending),
		)
	}
	return nil
}
