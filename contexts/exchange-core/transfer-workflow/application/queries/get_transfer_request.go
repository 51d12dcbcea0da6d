package queries

import (
	"context"
	"log/slog"
	"strings"

	application "resupply/contexts/exchange-core/transfer-workflow/application"
	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

type GetTransferRequestUseCase struct {
	Requests ports.Repository
	Gate     ports.AccessGate
	Logger   *slog.Logger
}

func (uc GetTransferRequestUseCase) Execute(ctx context.Context, identity ports.Identity, requestID string) (entities.TransferRequest, error) {
	request, err := uc.Requests.GetRequest(ctx, strings.TrimSpace(requestID))
	if err != nil {
		return entities.TransferRequest{}, err
	}

	allowed, reason, err := uc.Gate.Decide(ctx, identity, "transfer.read", ports.GateResource{
		OwnerOrganizationID: request.FromOrganizationID,
		FromOrganizationID:  request.FromOrganizationID,
		ToOrganizationID:    request.ToOrganizationID,
		RequestedBy:         request.RequestedBy,
	})
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if !allowed {
		application.ResolveLogger(uc.Logger).Warn("transfer read denied",
			"event", "transfer_read_denied",
			"module", "exchange-core/transfer-workflow",
			"layer", "application",
			"user_id", identity.UserID,
			"request_id", request.RequestID,
			"reason", reason,
		)
		return entities.TransferRequest{}, domainerrors.ErrForbidden
	}
	return request, nil
}
