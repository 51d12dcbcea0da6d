package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	contractsv1 "resupply/contracts/gen/events/v1"
)

const subscriptionBuffer = 128

// Kafka is the exchange event bus. The current implementation is an
// in-process publish/subscribe fan-out carrying the same envelope the
// external broker will; the outbox relay and the notification consumer
// both run against this surface.
type Kafka struct {
	mu     sync.RWMutex
	topics map[string][]*subscription
	logger *slog.Logger
}

type subscription struct {
	group string
	ch    chan contractsv1.Envelope
}

func NewKafka(_ []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		topics: make(map[string][]*subscription),
		logger: logger,
	}, nil
}

// Publish fans the envelope out to every subscription on the topic.
// Invalid envelopes never enter the bus; a full subscription buffer
// drops the event for that subscriber rather than blocking the
// publisher.
func (k *Kafka) Publish(ctx context.Context, topic string, event contractsv1.Envelope) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	k.mu.RLock()
	subs := append([]*subscription(nil), k.topics[topic]...)
	k.mu.RUnlock()

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub.ch <- event:
		default:
			k.logger.Warn("dropping event for slow subscriber",
				"event", "kafka_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", sub.group,
				"event_id", event.EventID,
			)
		}
	}

	k.logger.Info("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return nil
}

// Subscribe registers a handler for the topic and pumps events to it
// until ctx is cancelled. Handler errors are logged, not retried; the
// consumer decides what is worth surfacing.
func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, contractsv1.Envelope) error,
) error {
	sub := &subscription{group: consumerGroup, ch: make(chan contractsv1.Envelope, subscriptionBuffer)}

	k.mu.Lock()
	k.topics[topic] = append(k.topics[topic], sub)
	k.mu.Unlock()

	go k.pump(ctx, topic, sub, handler)
	return nil
}

func (k *Kafka) pump(ctx context.Context, topic string, sub *subscription, handler func(context.Context, contractsv1.Envelope) error) {
	defer k.unsubscribe(topic, sub)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-sub.ch:
			if err := handler(ctx, event); err != nil {
				k.logger.Error("consumer handler failed",
					"event", "kafka_consume_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", sub.group,
					"event_id", event.EventID,
					"event_type", event.EventType,
					"error", err.Error(),
				)
			}
		}
	}
}

func (k *Kafka) unsubscribe(topic string, target *subscription) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.topics[topic]
	filtered := items[:0]
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.topics[topic] = filtered
}
