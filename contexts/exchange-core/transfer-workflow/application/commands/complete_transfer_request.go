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

type CompleteTransferRequestCommand struct {
	RequestID string
	Comment   string
}

type CompleteTransferRequestUseCase struct {
	Requests  ports.Repository
	Inventory ports.InventoryService
	Gate      ports.AccessGate
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute confirms physical handover of an approved transfer. The
// status flip is guarded by the optimistic check; the ledger then
// finalizes the allocation, flipping the material to transferred when
// nothing remains unallocated.
func (uc CompleteTransferRequestUseCase) Execute(ctx context.Context, identity ports.Identity, cmd CompleteTransferRequestCommand) (entities.TransferRequest, error) {
	logger := application.ResolveLogger(uc.Logger)

	request, err := uc.Requests.GetRequest(ctx, strings.TrimSpace(cmd.RequestID))
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if !request.Status.CanTransitionTo(entities.TransferStatusCompleted) {
		return entities.TransferRequest{}, domainerrors.ErrInvalidTransferStatus
	}
	if err := authorize(ctx, uc.Gate, uc.Logger, identity, "transfer.complete", requestResource(request)); err != nil {
		return entities.TransferRequest{}, err
	}

	// Completion records its own timestamp; DecidedBy/DecidedAt keep
	// pointing at the approval decision.
	now := uc.Clock.Now().UTC()
	next := request
	next.Status = entities.TransferStatusCompleted
	next.CompletedAt = &now
	next.UpdatedAt = now
	comment, err := newComment(ctx, uc.IDGen, entities.CommentTypeCompletion, identity.UserID, cmd.Comment, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	next.Comments = append(next.Comments, comment)

	audit, err := newAuditTemplate(ctx, uc.IDGen, request.FromOrganizationID, request.RequestID, actionTransferCompleted, identity.UserID, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	event, err := newTransferEnvelope(eventID, eventTransferCompleted, next, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	updated, err := uc.Requests.UpdateRequest(ctx, next, entities.TransferStatusApproved, audit, event)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	if err := uc.Inventory.MarkTransferred(ctx, request.MaterialID, request.RequestID, identity.UserID); err != nil {
		logger.Error("transfer finalization failed",
			"event", "transfer_finalize_failed",
			"module", "exchange-core/transfer-workflow",
			"layer", "application",
			"request_id", request.RequestID,
			"material_id", request.MaterialID,
			"error", err.Error(),
		)
		return entities.TransferRequest{}, err
	}

	logger.Info("transfer completed",
		"event", "transfer_completed",
		"module", "exchange-core/transfer-workflow",
		"layer", "application",
		"request_id", request.RequestID,
		"material_id", request.MaterialID,
		"completed_by", identity.UserID,
	)
	return updated, nil
}
