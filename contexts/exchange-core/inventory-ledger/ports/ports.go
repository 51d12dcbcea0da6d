package ports

import (
	"context"
	"encoding/json"
	"time"

	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"

	"github.com/shopspring/decimal"
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
}

// AccessGate is the authorization boundary. Decisions are never cached.
type AccessGate interface {
	Decide(ctx context.Context, identity Identity, action string, resource GateResource) (bool, string, error)
}

// AuditEntry is the audit template a mutation persists in its own unit
// of work. Before/After snapshots are filled by the repository from the
// actual persisted states, never re-read after the fact.
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

// AttachmentChecker validates attachment identifiers referenced by a
// material. The binary itself never passes through the core.
type AttachmentChecker interface {
	AttachmentExists(ctx context.Context, attachmentID string) (bool, error)
}

type CreateMaterialInput struct {
	Name          string
	Description   string
	Quantity      decimal.Decimal
	Unit          string
	IsSurplus     bool
	AttachmentIDs []string
}

// ReserveInput is the workflow-facing allocation request. The actor has
// already passed the gate at the workflow layer.
type ReserveInput struct {
	MaterialID        string
	TransferRequestID string
	ActorID           string
	Quantity          decimal.Decimal
}

type MaterialDetailsUpdate struct {
	MaterialID  string
	Name        *string
	Description *string
	Unit        *string
	IsSurplus   *bool
}

// AllocationInput drives reserve/release against one material.
type AllocationInput struct {
	MaterialID        string
	TransferRequestID string
	ActorID           string
	Quantity          decimal.Decimal
	At                time.Time
}

type SurplusFilter struct {
	Category string
	Limit    int
	Offset   int
}

// Repository persists materials. Allocation operations are atomic per
// material: the conditional check, the ledger append, and the audit
// entry commit together or not at all.
type Repository interface {
	CreateMaterial(ctx context.Context, material entities.Material, audit AuditEntry) error
	GetMaterial(ctx context.Context, materialID string) (entities.Material, error)
	ListSurplusByCategory(ctx context.Context, filter SurplusFilter) ([]entities.Material, error)
	UpdateDetails(ctx context.Context, update MaterialDetailsUpdate, updatedAt time.Time, audit AuditEntry) (entities.Material, error)
	ArchiveMaterial(ctx context.Context, materialID string, archivedAt time.Time, audit AuditEntry) (entities.Material, error)
	ReserveQuantity(ctx context.Context, input AllocationInput, audit AuditEntry) (entities.Material, error)
	ReleaseQuantity(ctx context.Context, input AllocationInput, audit AuditEntry) (entities.Material, error)
	MarkTransferred(ctx context.Context, materialID string, transferRequestID string, at time.Time, audit AuditEntry) (entities.Material, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
