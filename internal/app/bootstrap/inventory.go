package bootstrap

import (
	"context"
	"errors"

	ledgerapp "resupply/contexts/exchange-core/inventory-ledger/application"
	ledgerentities "resupply/contexts/exchange-core/inventory-ledger/domain/entities"
	ledgererrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	ledgerports "resupply/contexts/exchange-core/inventory-ledger/ports"
	transfererrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	transferports "resupply/contexts/exchange-core/transfer-workflow/ports"
)

// inventoryBridge exposes the ledger to the transfer workflow. Snapshot
// reads go straight to the repository because the workflow has already
// passed its own gate; allocations go through the ledger service so the
// conservation invariant stays enforced in one place.
type inventoryBridge struct {
	materials ledgerports.Repository
	ledger    ledgerapp.Service
}

func (b inventoryBridge) GetMaterial(ctx context.Context, materialID string) (transferports.MaterialSnapshot, error) {
	material, err := b.materials.GetMaterial(ctx, materialID)
	if err != nil {
		return transferports.MaterialSnapshot{}, translateLedgerErr(err)
	}
	return transferports.MaterialSnapshot{
		MaterialID:           material.MaterialID,
		OrganizationID:       material.OrganizationID,
		OrganizationCategory: material.OrganizationCategory,
		Quantity:             material.Quantity,
		Unit:                 material.Unit,
		IsSurplus:            material.IsSurplus,
		Available:            material.Status == ledgerentities.MaterialStatusAvailable,
	}, nil
}

func (b inventoryBridge) Reserve(ctx context.Context, req transferports.AllocationRequest) error {
	_, err := b.ledger.Reserve(ctx, ledgerports.ReserveInput{
		MaterialID:        req.MaterialID,
		TransferRequestID: req.TransferRequestID,
		ActorID:           req.ActorID,
		Quantity:          req.Quantity,
	})
	return translateLedgerErr(err)
}

func (b inventoryBridge) Release(ctx context.Context, req transferports.AllocationRequest) error {
	_, err := b.ledger.Release(ctx, ledgerports.ReserveInput{
		MaterialID:        req.MaterialID,
		TransferRequestID: req.TransferRequestID,
		ActorID:           req.ActorID,
		Quantity:          req.Quantity,
	})
	return translateLedgerErr(err)
}

func (b inventoryBridge) MarkTransferred(ctx context.Context, materialID string, transferRequestID string, actorID string) error {
	_, err := b.ledger.MarkTransferred(ctx, materialID, transferRequestID, actorID)
	return translateLedgerErr(err)
}

// translateLedgerErr maps ledger failures into the transfer workflow's
// error vocabulary so HTTP status mapping stays consistent.
func translateLedgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledgererrors.ErrMaterialNotFound),
		errors.Is(err, ledgererrors.ErrMaterialUnavailable):
		return transfererrors.ErrMaterialUnavailable
	case errors.Is(err, ledgererrors.ErrInsufficientQuantity):
		return transfererrors.ErrInsufficientQuantity
	case errors.Is(err, ledgererrors.ErrNonPositiveQuantity):
		return transfererrors.ErrInvalidInput
	default:
		return err
	}
}
