package ports

import (
	"context"
	"time"

	"resupply/contexts/exchange-core/audit-recorder/domain/entities"
)

// Identity is the resolved caller attached to every query.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           string
}

// GateResource describes the trail slice a caller wants to read.
type GateResource struct {
	OwnerOrganizationID string
}

// AccessGate answers allow/deny for an identity, action, resource triple.
type AccessGate interface {
	Decide(ctx context.Context, identity Identity, action string, resource GateResource) (bool, string, error)
}

// EntryStore is append-only. AppendEntry must suppress duplicates of
// the same (entity_id, action, changed_at) key and report whether the
// entry was newly written.
type EntryStore interface {
	AppendEntry(ctx context.Context, entry entities.AuditLogEntry) (bool, error)
	ListByEntity(ctx context.Context, organizationID string, entity string, entityID string, limit int) ([]entities.AuditLogEntry, error)
	ListByActor(ctx context.Context, organizationID string, actorID string, limit int) ([]entities.AuditLogEntry, error)
	ListByTimeRange(ctx context.Context, organizationID string, from time.Time, to time.Time, limit int) ([]entities.AuditLogEntry, error)
}

type Clock interface {
	Now() time.Time
}
