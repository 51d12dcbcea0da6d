package v1

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Transfer lifecycle event types carried on the exchange bus. The
// schema version rides in the name so consumers can pin one.
const (
	EventTransferRequested = "exchange.transfer.requested.v1"
	EventTransferApproved  = "exchange.transfer.approved.v1"
	EventTransferRejected  = "exchange.transfer.rejected.v1"
	EventTransferCancelled = "exchange.transfer.cancelled.v1"
	EventTransferCompleted = "exchange.transfer.completed.v1"
)

// TransferLifecycleTopics lists every transfer event type, in lifecycle
// order, for consumers that want the whole stream.
func TransferLifecycleTopics() []string {
	return []string{
		EventTransferRequested,
		EventTransferApproved,
		EventTransferRejected,
		EventTransferCancelled,
		EventTransferCompleted,
	}
}

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// Envelope is the canonical, versioned envelope for exchange events.
// Cross-service contract: fields may be added but never renamed or
// removed.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Validate checks the fields every exchange consumer depends on before
// an envelope enters the bus.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return ErrInvalidEnvelope
	}
	if strings.TrimSpace(e.EventType) == "" {
		return ErrInvalidEnvelope
	}
	if e.SchemaVersion < 1 {
		return ErrInvalidEnvelope
	}
	return nil
}
