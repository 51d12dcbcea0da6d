package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"resupply/contexts/exchange-core/audit-recorder/application"
	"resupply/contexts/exchange-core/audit-recorder/domain/entities"
	domainerrors "resupply/contexts/exchange-core/audit-recorder/domain/errors"
	"resupply/contexts/exchange-core/audit-recorder/ports"
	httptransport "resupply/contexts/exchange-core/audit-recorder/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ListByEntityHandler(ctx context.Context, identity ports.Identity, entity string, entityID string, limit int) (httptransport.AuditListResponse, error) {
	entries, err := h.Service.ListByEntity(ctx, identity, entity, entityID, limit)
	if err != nil {
		return httptransport.AuditListResponse{}, err
	}
	return toListResponse(entries), nil
}

func (h Handler) ListByActorHandler(ctx context.Context, identity ports.Identity, actorID string, limit int) (httptransport.AuditListResponse, error) {
	entries, err := h.Service.ListByActor(ctx, identity, actorID, limit)
	if err != nil {
		return httptransport.AuditListResponse{}, err
	}
	return toListResponse(entries), nil
}

func (h Handler) ListByTimeRangeHandler(ctx context.Context, identity ports.Identity, organizationID string, fromRaw string, toRaw string, limit int) (httptransport.AuditListResponse, error) {
	from, err := time.Parse(time.RFC3339, fromRaw)
	if err != nil {
		return httptransport.AuditListResponse{}, domainerrors.ErrInvalidInput
	}
	to, err := time.Parse(time.RFC3339, toRaw)
	if err != nil {
		return httptransport.AuditListResponse{}, domainerrors.ErrInvalidInput
	}
	entries, err := h.Service.ListByTimeRange(ctx, identity, organizationID, from, to, limit)
	if err != nil {
		return httptransport.AuditListResponse{}, err
	}
	return toListResponse(entries), nil
}

func toListResponse(entries []entities.AuditLogEntry) httptransport.AuditListResponse {
	resp := httptransport.AuditListResponse{Status: "success", Data: make([]httptransport.AuditEntryPayload, 0, len(entries))}
	for _, entry := range entries {
		resp.Data = append(resp.Data, httptransport.AuditEntryPayload{
			AuditID:        entry.AuditID,
			OrganizationID: entry.OrganizationID,
			Entity:         entry.Entity,
			EntityID:       entry.EntityID,
			Action:         entry.Action,
			ChangedBy:      entry.ChangedBy,
			ChangedAt:      entry.ChangedAt.UTC().Format(time.RFC3339),
			Before:         rawToAny(entry.Before),
			After:          rawToAny(entry.After),
		})
	}
	return resp
}

// rawToAny inlines stored snapshots as JSON objects instead of
// double-encoded strings.
func rawToAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	return out
}
