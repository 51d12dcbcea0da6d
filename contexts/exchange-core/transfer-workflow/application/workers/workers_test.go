package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

type stubOutbox struct {
	rows      []ports.OutboxMessage
	published []string
}

func (s *stubOutbox) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit > len(s.rows) {
		limit = len(s.rows)
	}
	out := make([]ports.OutboxMessage, limit)
	copy(out, s.rows[:limit])
	return out, nil
}

func (s *stubOutbox) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.published = append(s.published, outboxID)
	remaining := s.rows[:0]
	for _, row := range s.rows {
		if row.OutboxID != outboxID {
			remaining = append(remaining, row)
		}
	}
	s.rows = remaining
	return nil
}

type stubPublisher struct {
	topics []string
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	return nil
}

func outboxRow(t *testing.T, outboxID string, eventType string) ports.OutboxMessage {
	t.Helper()
	payload, err := json.Marshal(ports.EventEnvelope{
		EventID:   outboxID + "_evt",
		EventType: eventType,
		Data:      json.RawMessage(`{"request_id":"req_1"}`),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return ports.OutboxMessage{OutboxID: outboxID, EventType: eventType, Payload: payload}
}

func TestOutboxRelayPublishesAndMarksRows(t *testing.T) {
	outbox := &stubOutbox{rows: []ports.OutboxMessage{
		outboxRow(t, "ob_1", "exchange.transfer.requested.v1"),
		outboxRow(t, "ob_2", "exchange.transfer.approved.v1"),
	}}
	publisher := &stubPublisher{}

	relay := OutboxRelay{Outbox: outbox, Publisher: publisher, BatchSize: 10}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(publisher.topics) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.topics))
	}
	if publisher.topics[0] != "exchange.transfer.requested.v1" {
		t.Fatalf("unexpected topic %q", publisher.topics[0])
	}
	if len(outbox.published) != 2 || len(outbox.rows) != 0 {
		t.Fatalf("expected all rows marked published, got marked=%d remaining=%d", len(outbox.published), len(outbox.rows))
	}
}

func TestOutboxRelayKeepsRowOnPublishFailure(t *testing.T) {
	outbox := &stubOutbox{rows: []ports.OutboxMessage{
		outboxRow(t, "ob_1", "exchange.transfer.requested.v1"),
	}}
	publisher := &stubPublisher{err: errors.New("broker down")}

	relay := OutboxRelay{Outbox: outbox, Publisher: publisher, BatchSize: 10}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected publish failure to surface")
	}
	if len(outbox.published) != 0 || len(outbox.rows) != 1 {
		t.Fatalf("row must stay pending after failed publish, marked=%d remaining=%d", len(outbox.published), len(outbox.rows))
	}
}

type stubSubscriber struct {
	topics []string
	group  string
}

func (s *stubSubscriber) Subscribe(_ context.Context, topic string, group string, _ func(context.Context, ports.EventEnvelope) error) error {
	s.topics = append(s.topics, topic)
	s.group = group
	return nil
}

type recordingSender struct {
	sent []ports.TransferNotification
	err  error
}

func (s *recordingSender) SendTransferNotification(_ context.Context, notification ports.TransferNotification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, notification)
	return nil
}

func TestNotificationConsumerSubscribesToLifecycleTopics(t *testing.T) {
	subscriber := &stubSubscriber{}
	consumer := TransferNotificationConsumer{Subscriber: subscriber, Sender: &recordingSender{}}

	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(subscriber.topics) != 5 {
		t.Fatalf("expected 5 topic subscriptions, got %d", len(subscriber.topics))
	}
	if subscriber.group != defaultNotificationGroup {
		t.Fatalf("unexpected consumer group %q", subscriber.group)
	}
}

func TestNotificationConsumerDispatchesEvent(t *testing.T) {
	sender := &recordingSender{}
	consumer := TransferNotificationConsumer{Sender: sender}

	event := ports.EventEnvelope{
		EventID:   "evt_1",
		EventType: "exchange.transfer.approved.v1",
		Data: json.RawMessage(`{
			"request_id": "req_1",
			"material_id": "mat_1",
			"from_organization_id": "org_food_1",
			"to_organization_id": "org_shelter_2",
			"quantity": "60",
			"unit": "kg",
			"status": "approved"
		}`),
	}
	if err := consumer.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sender.sent))
	}
	sent := sender.sent[0]
	if sent.RequestID != "req_1" || sent.ToOrganizationID != "org_shelter_2" || sent.Quantity != "60" {
		t.Fatalf("unexpected notification %+v", sent)
	}
}

func TestNotificationConsumerSwallowsSendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	consumer := TransferNotificationConsumer{Sender: sender}

	event := ports.EventEnvelope{
		EventID:   "evt_1",
		EventType: "exchange.transfer.approved.v1",
		Data:      json.RawMessage(`{"request_id":"req_1"}`),
	}
	if err := consumer.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("send failure must not bubble up: %v", err)
	}
}

func TestNotificationConsumerRejectsMalformedPayload(t *testing.T) {
	consumer := TransferNotificationConsumer{Sender: &recordingSender{}}

	event := ports.EventEnvelope{EventID: "evt_1", Data: json.RawMessage(`{`)}
	if err := consumer.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("expected decode failure")
	}
}
