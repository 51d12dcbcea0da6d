package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/exchange-core/audit-recorder/domain/entities"
	domainerrors "resupply/contexts/exchange-core/audit-recorder/domain/errors"
	"resupply/contexts/exchange-core/audit-recorder/ports"
)

const (
	actionAuditRead = "audit.read"

	defaultQueryLimit = 200
	rolePlatformAdmin = "platform_admin"
)

// Service records committed mutations and answers scoped history
// queries. Record is an internal write path fed by the other exchange
// services; the list queries face callers and therefore pass the gate.
type Service struct {
	Store  ports.EntryStore
	Gate   ports.AccessGate
	Logger *slog.Logger
}

// Record appends one audit entry. Re-delivery of an already recorded
// mutation is not an error: the store suppresses it by dedup key and
// Record returns nil.
func (s Service) Record(ctx context.Context, entry entities.AuditLogEntry) error {
	if !entry.ValidateRecord() {
		return domainerrors.ErrInvalidEntry
	}

	written, err := s.Store.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if !written {
		ResolveLogger(s.Logger).DebugContext(ctx, "duplicate audit entry suppressed",
			slog.String("event", "audit_entry_duplicate"),
			slog.String("module", "audit-recorder"),
			slog.String("entity_id", entry.EntityID),
			slog.String("action", entry.Action),
		)
		return nil
	}

	ResolveLogger(s.Logger).InfoContext(ctx, "audit entry recorded",
		slog.String("event", "audit_entry_recorded"),
		slog.String("module", "audit-recorder"),
		slog.String("audit_id", entry.AuditID),
		slog.String("entity", entry.Entity),
		slog.String("entity_id", entry.EntityID),
		slog.String("action", entry.Action),
	)
	return nil
}

// ListByEntity returns the trail of one entity within the caller's
// organization scope, newest first.
func (s Service) ListByEntity(ctx context.Context, identity ports.Identity, entity string, entityID string, limit int) ([]entities.AuditLogEntry, error) {
	scope, err := s.authorizeRead(ctx, identity, identity.OrganizationID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(entityID) == "" || strings.TrimSpace(entity) == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return s.Store.ListByEntity(ctx, scope, entity, entityID, normalizeLimit(limit))
}

// ListByActor returns everything one user changed inside the scope.
func (s Service) ListByActor(ctx context.Context, identity ports.Identity, actorID string, limit int) ([]entities.AuditLogEntry, error) {
	scope, err := s.authorizeRead(ctx, identity, identity.OrganizationID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return s.Store.ListByActor(ctx, scope, actorID, normalizeLimit(limit))
}

// ListByTimeRange returns the scope's trail between from and to inclusive.
func (s Service) ListByTimeRange(ctx context.Context, identity ports.Identity, organizationID string, from time.Time, to time.Time, limit int) ([]entities.AuditLogEntry, error) {
	scope, err := s.authorizeRead(ctx, identity, organizationID)
	if err != nil {
		return nil, err
	}
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, domainerrors.ErrInvalidInput
	}
	return s.Store.ListByTimeRange(ctx, scope, from, to, normalizeLimit(limit))
}

// authorizeRead resolves the organization scope of a query. Platform
// admins may name any organization; everyone else is pinned to their
// own regardless of what they asked for.
func (s Service) authorizeRead(ctx context.Context, identity ports.Identity, requestedOrgID string) (string, error) {
	scope := identity.OrganizationID
	if identity.Role == rolePlatformAdmin && strings.TrimSpace(requestedOrgID) != "" {
		scope = requestedOrgID
	}
	if strings.TrimSpace(scope) == "" {
		return "", domainerrors.ErrInvalidInput
	}

	allowed, reason, err := s.Gate.Decide(ctx, identity, actionAuditRead, ports.GateResource{OwnerOrganizationID: scope})
	if err != nil {
		return "", fmt.Errorf("gate decision: %w", err)
	}
	if !allowed {
		ResolveLogger(s.Logger).WarnContext(ctx, "audit read denied",
			slog.String("event", "audit_read_denied"),
			slog.String("module", "audit-recorder"),
			slog.String("user_id", identity.UserID),
			slog.String("scope", scope),
			slog.String("reason", reason),
		)
		return "", domainerrors.ErrForbidden
	}
	return scope, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > defaultQueryLimit {
		return defaultQueryLimit
	}
	return limit
}
