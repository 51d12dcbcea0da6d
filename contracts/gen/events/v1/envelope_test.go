package v1

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func validEnvelope() Envelope {
	return Envelope{
		EventID:       "evt_1",
		EventType:     EventTransferRequested,
		OccurredAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		SourceService: "transfer-workflow",
		SchemaVersion: 1,
		PartitionKey:  "req_1",
		Data:          json.RawMessage(`{"request_id":"req_1"}`),
	}
}

func TestEnvelopeValidate(t *testing.T) {
	if err := validEnvelope().Validate(); err != nil {
		t.Fatalf("valid envelope rejected: %v", err)
	}

	cases := map[string]func(*Envelope){
		"missing event id":       func(e *Envelope) { e.EventID = " " },
		"missing event type":     func(e *Envelope) { e.EventType = "" },
		"zero schema version":    func(e *Envelope) { e.SchemaVersion = 0 },
		"negative schemaversion": func(e *Envelope) { e.SchemaVersion = -1 },
	}
	for name, mutate := range cases {
		e := validEnvelope()
		mutate(&e)
		if err := e.Validate(); !errors.Is(err, ErrInvalidEnvelope) {
			t.Fatalf("%s: expected ErrInvalidEnvelope, got %v", name, err)
		}
	}
}

func TestTransferLifecycleTopicsCoverEveryEventType(t *testing.T) {
	topics := TransferLifecycleTopics()
	want := []string{
		EventTransferRequested,
		EventTransferApproved,
		EventTransferRejected,
		EventTransferCancelled,
		EventTransferCompleted,
	}
	if len(topics) != len(want) {
		t.Fatalf("expected %d topics, got %d", len(want), len(topics))
	}
	for i, topic := range want {
		if topics[i] != topic {
			t.Fatalf("topic %d: expected %s, got %s", i, topic, topics[i])
		}
	}
}
