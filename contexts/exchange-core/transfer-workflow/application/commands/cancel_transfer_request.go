package commands

import (
	"context"
	"log/slog"
	"strings"

	application "resupply/contexts/exchange-core/transfer-workflow/application"
	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

type CancelTransferRequestCommand struct {
	RequestID string
	Comment   string
}

type CancelTransferRequestUseCase struct {
	Requests  ports.Repository
	Inventory ports.InventoryService
	Gate      ports.AccessGate
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute cancels a pending or approved request. The status flip wins
// the optimistic check first so a racing completion cannot interleave;
// the reservation release for an approved request follows once the
// cancellation is durable.
func (uc CancelTransferRequestUseCase) Execute(ctx context.Context, identity ports.Identity, cmd CancelTransferRequestCommand) (entities.TransferRequest, error) {
	logger := application.ResolveLogger(uc.Logger)

	request, err := uc.Requests.GetRequest(ctx, strings.TrimSpace(cmd.RequestID))
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if !request.Status.CanTransitionTo(entities.TransferStatusCancelled) {
		return entities.TransferRequest{}, domainerrors.ErrInvalidTransferStatus
	}
	if err := authorize(ctx, uc.Gate, uc.Logger, identity, "transfer.cancel", requestResource(request)); err != nil {
		return entities.TransferRequest{}, err
	}

	wasApproved := request.Status == entities.TransferStatusApproved
	now := uc.Clock.Now().UTC()
	next := request
	next.Status = entities.TransferStatusCancelled
	next.DecidedBy = identity.UserID
	next.DecidedAt = &now
	next.UpdatedAt = now
	comment, err := newComment(ctx, uc.IDGen, entities.CommentTypeCancellation, identity.UserID, cmd.Comment, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	next.Comments = append(next.Comments, comment)

	audit, err := newAuditTemplate(ctx, uc.IDGen, request.FromOrganizationID, request.RequestID, actionTransferCancelled, identity.UserID, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	event, err := newTransferEnvelope(eventID, eventTransferCancelled, next, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	updated, err := uc.Requests.UpdateRequest(ctx, next, request.Status, audit, event)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	if wasApproved {
		if err := uc.Inventory.Release(ctx, ports.AllocationRequest{
			MaterialID:        request.MaterialID,
			TransferRequestID: request.RequestID,
			ActorID:           identity.UserID,
			Quantity:          request.Quantity,
		}); err != nil {
			// The cancellation is durable; the stuck reservation needs
			// operator attention rather than a silent rollback.
			logger.Error("cancellation release failed",
				"event", "transfer_cancel_release_failed",
				"module", "exchange-core/transfer-workflow",
				"layer", "application",
				"request_id", request.RequestID,
				"material_id", request.MaterialID,
				"error", err.Error(),
			)
			return entities.TransferRequest{}, err
		}
	}

	logger.Info("transfer cancelled",
		"event", "transfer_cancelled",
		"module", "exchange-core/transfer-workflow",
		"layer", "application",
		"request_id", request.RequestID,
		"material_id", request.MaterialID,
		"cancelled_by", identity.UserID,
		"was_approved", wasApproved,
	)
	return updated, nil
}
