package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractsv1 "resupply/contracts/gen/events/v1"
)

func testEnvelope(eventID string) contractsv1.Envelope {
	return contractsv1.Envelope{
		EventID:       eventID,
		EventType:     contractsv1.EventTransferApproved,
		OccurredAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		SourceService: "transfer-workflow",
		SchemaVersion: 1,
		PartitionKey:  "req_1",
		Data:          json.RawMessage(`{"request_id":"req_1"}`),
	}
}

func TestKafkaDeliversToSubscriber(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan contractsv1.Envelope, 1)
	err = bus.Subscribe(ctx, contractsv1.EventTransferApproved, "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, contractsv1.EventTransferApproved, testEnvelope("evt_1")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt_1" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestKafkaRejectsInvalidEnvelope(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}

	event := testEnvelope("evt_1")
	event.EventType = ""
	if err := bus.Publish(context.Background(), "some.topic", event); !errors.Is(err, contractsv1.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestKafkaIgnoresOtherTopics(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan contractsv1.Envelope, 1)
	err = bus.Subscribe(ctx, contractsv1.EventTransferRejected, "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, contractsv1.EventTransferApproved, testEnvelope("evt_1")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		t.Fatalf("subscriber on another topic received %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}
