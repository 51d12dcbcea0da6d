package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	contractsv1 "resupply/contracts/gen/events/v1"
	application "resupply/contexts/exchange-core/transfer-workflow/application"
	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

const (
	entityTransferRequest = "transfer_request"

	actionTransferRequested = "transfer.requested"
	actionTransferApproved  = "transfer.approved"
	actionTransferRejected  = "transfer.rejected"
	actionTransferCancelled = "transfer.cancelled"
	actionTransferCompleted = "transfer.completed"

	eventTransferRequested = contractsv1.EventTransferRequested
	eventTransferApproved  = contractsv1.EventTransferApproved
	eventTransferRejected  = contractsv1.EventTransferRejected
	eventTransferCancelled = contractsv1.EventTransferCancelled
	eventTransferCompleted = contractsv1.EventTransferCompleted
)

func newTransferEnvelope(
	eventID string,
	eventType string,
	request entities.TransferRequest,
	occurredAt time.Time,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(map[string]any{
		"request_id":           request.RequestID,
		"material_id":          request.MaterialID,
		"from_organization_id": request.FromOrganizationID,
		"to_organization_id":   request.ToOrganizationID,
		"quantity":             request.Quantity.String(),
		"unit":                 request.Unit,
		"status":               string(request.Status),
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "transfer-workflow",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "request_id",
		PartitionKey:     request.RequestID,
		Data:             payload,
	}, nil
}

func newAuditTemplate(
	ctx context.Context,
	idGen ports.IDGenerator,
	organizationID string,
	requestID string,
	action string,
	actorID string,
	at time.Time,
) (ports.AuditEntry, error) {
	auditID, err := idGen.NewID(ctx)
	if err != nil {
		return ports.AuditEntry{}, err
	}
	return ports.AuditEntry{
		AuditID:        auditID,
		OrganizationID: organizationID,
		Entity:         entityTransferRequest,
		EntityID:       requestID,
		Action:         action,
		ChangedBy:      strings.TrimSpace(actorID),
		ChangedAt:      at,
	}, nil
}

func authorize(
	ctx context.Context,
	gate ports.AccessGate,
	logger *slog.Logger,
	identity ports.Identity,
	action string,
	resource ports.GateResource,
) error {
	allowed, reason, err := gate.Decide(ctx, identity, action, resource)
	if err != nil {
		return err
	}
	if !allowed {
		application.ResolveLogger(logger).Warn("transfer action denied",
			"event", "transfer_action_denied",
			"module", "exchange-core/transfer-workflow",
			"layer", "application",
			"user_id", identity.UserID,
			"action", action,
			"reason", reason,
		)
		return domainerrors.ErrForbidden
	}
	return nil
}

// newComment records who drove the transition and when. Every
// transition appends one, even with an empty body; only rejection
// enforces a body, upstream.
func newComment(
	ctx context.Context,
	idGen ports.IDGenerator,
	commentType entities.CommentType,
	authorID string,
	body string,
	at time.Time,
) (entities.Comment, error) {
	commentID, err := idGen.NewID(ctx)
	if err != nil {
		return entities.Comment{}, err
	}
	return entities.Comment{
		CommentID: commentID,
		Type:      commentType,
		AuthorID:  strings.TrimSpace(authorID),
		Body:      strings.TrimSpace(body),
		CreatedAt: at,
	}, nil
}

func requestResource(request entities.TransferRequest) ports.GateResource {
	return ports.GateResource{
		OwnerOrganizationID: request.FromOrganizationID,
		FromOrganizationID:  request.FromOrganizationID,
		ToOrganizationID:    request.ToOrganizationID,
		RequestedBy:         request.RequestedBy,
	}
}
