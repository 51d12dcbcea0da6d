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

type RejectTransferRequestCommand struct {
	RequestID string
	Comment   string
}

type RejectTransferRequestUseCase struct {
	Requests ports.Repository
	Gate     ports.AccessGate
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// Execute rejects a pending request. A comment is mandatory so the
// requester learns why. No reservation exists before approval, so
// there is nothing to release.
func (uc RejectTransferRequestUseCase) Execute(ctx context.Context, identity ports.Identity, cmd RejectTransferRequestCommand) (entities.TransferRequest, error) {
	if strings.TrimSpace(cmd.Comment) == "" {
		return entities.TransferRequest{}, domainerrors.ErrRejectionCommentRequired
	}

	request, err := uc.Requests.GetRequest(ctx, strings.TrimSpace(cmd.RequestID))
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if !request.Status.CanTransitionTo(entities.TransferStatusRejected) {
		return entities.TransferRequest{}, domainerrors.ErrInvalidTransferStatus
	}
	if err := authorize(ctx, uc.Gate, uc.Logger, identity, "transfer.reject", requestResource(request)); err != nil {
		return entities.TransferRequest{}, err
	}

	now := uc.Clock.Now().UTC()
	next := request
	next.Status = entities.TransferStatusRejected
	next.DecidedBy = identity.UserID
	next.DecidedAt = &now
	next.UpdatedAt = now
	comment, err := newComment(ctx, uc.IDGen, entities.CommentTypeRejection, identity.UserID, cmd.Comment, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	next.Comments = append(next.Comments, comment)

	audit, err := newAuditTemplate(ctx, uc.IDGen, request.FromOrganizationID, request.RequestID, actionTransferRejected, identity.UserID, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	event, err := newTransferEnvelope(eventID, eventTransferRejected, next, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	updated, err := uc.Requests.UpdateRequest(ctx, next, entities.TransferStatusPending, audit, event)
	if err != nil {
		return entities.TransferRequest{}, err
	}

	application.ResolveLogger(uc.Logger).Info("transfer rejected",
		"event", "transfer_rejected",
		"module", "exchange-core/transfer-workflow",
		"layer", "application",
		"request_id", request.RequestID,
		"material_id", request.MaterialID,
		"decided_by", identity.UserID,
	)
	return updated, nil
}
