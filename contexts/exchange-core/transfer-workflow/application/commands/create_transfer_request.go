package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	application "resupply/contexts/exchange-core/transfer-workflow/application"
	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"
)

type CreateTransferRequestCommand struct {
	MaterialID string
	Quantity   decimal.Decimal
	Comment    string
}

type CreateTransferRequestUseCase struct {
	Requests  ports.Repository
	Inventory ports.InventoryService
	Gate      ports.AccessGate
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute opens a pending request against another organization's
// material. Quantity is checked here only as an early courtesy; the
// binding reservation happens at approval time.
func (uc CreateTransferRequestUseCase) Execute(ctx context.Context, identity ports.Identity, cmd CreateTransferRequestCommand) (entities.TransferRequest, error) {
	logger := application.ResolveLogger(uc.Logger)

	materialID := strings.TrimSpace(cmd.MaterialID)
	if materialID == "" {
		return entities.TransferRequest{}, domainerrors.ErrInvalidInput
	}
	if !cmd.Quantity.IsPositive() {
		return entities.TransferRequest{}, domainerrors.ErrInvalidInput
	}

	material, err := uc.Inventory.GetMaterial(ctx, materialID)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if material.OrganizationID == identity.OrganizationID {
		return entities.TransferRequest{}, domainerrors.ErrSameOrganization
	}
	if !material.Available || !material.IsSurplus {
		return entities.TransferRequest{}, domainerrors.ErrMaterialUnavailable
	}
	if cmd.Quantity.GreaterThan(material.Quantity) {
		return entities.TransferRequest{}, domainerrors.ErrInsufficientQuantity
	}

	if err := authorize(ctx, uc.Gate, uc.Logger, identity, "transfer.create", ports.GateResource{
		OwnerOrganizationID: material.OrganizationID,
		Category:            material.OrganizationCategory,
		FromOrganizationID:  material.OrganizationID,
		ToOrganizationID:    identity.OrganizationID,
		RequestedBy:         identity.UserID,
	}); err != nil {
		return entities.TransferRequest{}, err
	}

	requestID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	now := uc.Clock.Now().UTC()

	request := entities.TransferRequest{
		RequestID:          requestID,
		MaterialID:         materialID,
		FromOrganizationID: material.OrganizationID,
		ToOrganizationID:   identity.OrganizationID,
		RequestedBy:        identity.UserID,
		Quantity:           cmd.Quantity,
		Unit:               material.Unit,
		Status:             entities.TransferStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	comment, err := newComment(ctx, uc.IDGen, entities.CommentTypeRequest, identity.UserID, cmd.Comment, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	request.Comments = append(request.Comments, comment)
	if !request.ValidateCreate() {
		return entities.TransferRequest{}, domainerrors.ErrInvalidInput
	}

	audit, err := newAuditTemplate(ctx, uc.IDGen, request.FromOrganizationID, requestID, actionTransferRequested, identity.UserID, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	event, err := newTransferEnvelope(eventID, eventTransferRequested, request, now)
	if err != nil {
		return entities.TransferRequest{}, err
	}
	if err := uc.Requests.CreateRequest(ctx, request, audit, event); err != nil {
		return entities.TransferRequest{}, err
	}

	logger.Info("transfer requested",
		"event", "transfer_requested",
		"module", "exchange-core/transfer-workflow",
		"layer", "application",
		"request_id", requestID,
		"material_id", materialID,
		"from_organization_id", request.FromOrganizationID,
		"to_organization_id", request.ToOrganizationID,
		"quantity", request.Quantity.String(),
	)
	return request, nil
}
