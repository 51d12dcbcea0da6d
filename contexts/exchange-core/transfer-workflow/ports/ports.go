package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	contractsv1 "resupply/contracts/gen/events/v1"
)

// Identity is the module-local view of the resolved caller identity.
type Identity struct {
	UserID               string
	OrganizationID       string
	OrganizationCategory string
	Role                 string
}

// GateResource describes the resource being guarded for a gate decision.
type GateResource struct {
	OwnerOrganizationID string
	Category            string
	FromOrganizationID  string
	ToOrganizationID    string
	RequestedBy         string
}

// AccessGate is the authorization boundary. Decisions are never cached.
type AccessGate interface {
	Decide(ctx context.Context, identity Identity, action string, resource GateResource) (bool, string, error)
}

// MaterialSnapshot is the workflow-facing view of a ledger material.
type MaterialSnapshot struct {
	MaterialID           string
	OrganizationID       string
	OrganizationCategory string
	Quantity             decimal.Decimal
	Unit                 string
	IsSurplus            bool
	Available            bool
}

// AllocationRequest drives reserve/release/transfer calls against the
// inventory ledger on behalf of one transfer request.
type AllocationRequest struct {
	MaterialID        string
	TransferRequestID string
	ActorID           string
	Quantity          decimal.Decimal
}

// InventoryService is the ledger boundary. Implementations translate
// ledger failures into this module's error vocabulary.
type InventoryService interface {
	GetMaterial(ctx context.Context, materialID string) (MaterialSnapshot, error)
	Reserve(ctx context.Context, req AllocationRequest) error
	Release(ctx context.Context, req AllocationRequest) error
	MarkTransferred(ctx context.Context, materialID string, transferRequestID string, actorID string) error
}

// AuditEntry is the audit template a state change persists in its own
// unit of work. Before/After are filled by the repository.
type AuditEntry struct {
	AuditID        string
	OrganizationID string
	Entity         string
	EntityID       string
	Action         string
	ChangedBy      string
	ChangedAt      time.Time
	Before         json.RawMessage
	After          json.RawMessage
}

// AuditSink accepts audit entries. Append failure aborts the mutation.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository is the relay's read side of the outbox table.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber is the consuming side of the event bus.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// TransferNotification is the outbound message sent to the parties of a
// transfer request when its status changes.
type TransferNotification struct {
	EventID            string
	EventType          string
	RequestID          string
	MaterialID         string
	FromOrganizationID string
	ToOrganizationID   string
	Quantity           string
	Unit               string
	Status             string
}

// NotificationSender delivers transfer notifications. Delivery is best
// effort; a failure never feeds back into the workflow state.
type NotificationSender interface {
	SendTransferNotification(ctx context.Context, notification TransferNotification) error
}

type TransferFilter struct {
	OrganizationID string
	Status         entities.TransferStatus
	Limit          int
	Offset         int
}

// Repository persists transfer requests. Mutations commit the request
// row, the audit entry, and the outbox event in one unit of work.
// UpdateRequest applies only when the stored status still equals
// expectedStatus; a mismatch reports ErrStatusConflict so racing
// reviewers cannot both win.
type Repository interface {
	CreateRequest(ctx context.Context, request entities.TransferRequest, audit AuditEntry, event EventEnvelope) error
	GetRequest(ctx context.Context, requestID string) (entities.TransferRequest, error)
	ListRequests(ctx context.Context, filter TransferFilter) ([]entities.TransferRequest, error)
	UpdateRequest(ctx context.Context, request entities.TransferRequest, expectedStatus entities.TransferStatus, audit AuditEntry, event EventEnvelope) (entities.TransferRequest, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
