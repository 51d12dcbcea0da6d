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

type ApproveTransferRequestCommand struct {
	RequestID string
	Comment   string
}

type ApproveTransferRequestUseCase struct {
	Requests  ports.Repository
	Inventory ports.InventoryService
	Gate      ports.AccessGate
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute approves a pending request. The quantity reservation happens
// before the status flip; if the flip fails for any reason, optimistic
// conflict or store failure alike, this path releases its own
// reservation and reports the error. The ledger therefore never holds
// quantity for a request that did not reach approved.
func (uc ApproveTransferRequestUseCase) Execute(ctx context.Context, identity ports.Identity, cmd ApproveTransferRequestCommand) (entities.TransferRequest, error) {
	logger := application.ResolveLogger(uc.Logger)

	request, err := uc.Requests.GetRequest(ctx, strings.TrimSpace(cmd.RequestID))
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if !request.Status.CanTransitionTo(entities.TransferStatusApproved) {
		return entities.TransferRequest{}, domainerrors.ErrInvalidTransferStatus
	}
	if err := authorize(ctx, uc.Gate, uc.Logger, identity, "transfer.approve", requestResource(request)); err != nil {
		return entities.TransferRequest{}, err
	}

	allocation := ports.AllocationRequest{
		MaterialID:        request.MaterialID,
		TransferRequestID: request.RequestID,
		ActorID:           identity.UserID,
		Quantity:          request.Quantity,
	}
	if err := uc.Inventory.Reserve(ctx, allocation); err != nil {
		return entities.TransferRequest{}, err
	}

	now := uc.Clock.Now().UTC()
	next := request
	next.Status = entities.TransferStatusApproved
	next.DecidedBy = identity.UserID
	next.DecidedAt = &now
	next.UpdatedAt = now
	comment, err := newComment(ctx, uc.IDGen, entities.CommentTypeApproval, identity.UserID, cmd.Comment, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	next.Comments = append(next.Comments, comment)

	audit, err := newAuditTemplate(ctx, uc.IDGen, request.FromOrganizationID, request.RequestID, actionTransferApproved, identity.UserID, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	event, err := newTransferEnvelope(eventID, eventTransferApproved, next, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	updated, err := uc.Requests.UpdateRequest(ctx, next, entities.TransferStatusPending, audit, event)
	if err != nil {
		// The request is still pending whatever made the update fail, so
		// the reservation must come back regardless of the cause. A
		// failed release leaves quantity stuck and needs operator
		// attention rather than a silent retry.
		if releaseErr := uc.Inventory.Release(ctx, allocation); releaseErr != nil {
			logger.Error("approval compensation failed",
				"event", "transfer_approval_compensation_failed",
				"module", "exchange-core/transfer-workflow",
				"layer", "application",
				"request_id", request.RequestID,
				"material_id", request.MaterialID,
				"update_error", err.Error(),
				"error", releaseErr.Error(),
			)
		}
		return entities.TransferRequest{}, err
	}

	logger.Info("transfer approved",
		"event", "transfer_approved",
		"module", "exchange-core/transfer-workflow",
		"layer", "application",
		"request_id", request.RequestID,
		"material_id", request.MaterialID,
		"decided_by", identity.UserID,
		"quantity", request.Quantity.String(),
	)
	return updated, nil
}
