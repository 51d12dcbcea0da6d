package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/exchange-core/inventory-ledger/application"
	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"
	domainerrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	"resupply/contexts/exchange-core/inventory-ledger/ports"
	httptransport "resupply/contexts/exchange-core/inventory-ledger/transport/http"

	"github.com/shopspring/decimal"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateMaterialHandler(ctx context.Context, identity ports.Identity, req httptransport.CreateMaterialRequest) (httptransport.MaterialResponse, error) {
	quantity, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil {
		return httptransport.MaterialResponse{}, domainerrors.ErrInvalidInput
	}
	material, err := h.Service.CreateMaterial(ctx, identity, ports.CreateMaterialInput{
		Name:          req.Name,
		Description:   req.Description,
		Quantity:      quantity,
		Unit:          req.Unit,
		IsSurplus:     req.IsSurplus,
		AttachmentIDs: req.AttachmentIDs,
	})
	if err != nil {
		return httptransport.MaterialResponse{}, err
	}
	return httptransport.MaterialResponse{Status: "success", Data: toPayload(material)}, nil
}

func (h Handler) GetMaterialHandler(ctx context.Context, identity ports.Identity, materialID string) (httptransport.MaterialResponse, error) {
	material, err := h.Service.GetMaterial(ctx, identity, materialID)
	if err != nil {
		return httptransport.MaterialResponse{}, err
	}
	return httptransport.MaterialResponse{Status: "success", Data: toPayload(material)}, nil
}

func (h Handler) ListSurplusHandler(ctx context.Context, identity ports.Identity, limit int, offset int) (httptransport.MaterialListResponse, error) {
	materials, err := h.Service.ListSurplus(ctx, identity, limit, offset)
	if err != nil {
		return httptransport.MaterialListResponse{}, err
	}
	resp := httptransport.MaterialListResponse{Status: "success", Data: make([]httptransport.MaterialPayload, 0, len(materials))}
	for _, material := range materials {
		resp.Data = append(resp.Data, toPayload(material))
	}
	return resp, nil
}

func (h Handler) UpdateMaterialHandler(ctx context.Context, identity ports.Identity, materialID string, req httptransport.UpdateMaterialRequest) (httptransport.MaterialResponse, error) {
	material, err := h.Service.UpdateMaterialDetails(ctx, identity, ports.MaterialDetailsUpdate{
		MaterialID:  materialID,
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		IsSurplus:   req.IsSurplus,
	})
	if err != nil {
		return httptransport.MaterialResponse{}, err
	}
	return httptransport.MaterialResponse{Status: "success", Data: toPayload(material)}, nil
}

func (h Handler) ArchiveMaterialHandler(ctx context.Context, identity ports.Identity, materialID string) (httptransport.MaterialResponse, error) {
	material, err := h.Service.ArchiveMaterial(ctx, identity, materialID)
	if err != nil {
		return httptransport.MaterialResponse{}, err
	}
	return httptransport.MaterialResponse{Status: "success", Data: toPayload(material)}, nil
}

func toPayload(material entities.Material) httptransport.MaterialPayload {
	return httptransport.MaterialPayload{
		MaterialID:     material.MaterialID,
		OrganizationID: material.OrganizationID,
		Name:           material.Name,
		Description:    material.Description,
		Quantity:       material.Quantity.String(),
		ListedQuantity: material.ListedQuantity.String(),
		Unit:           material.Unit,
		Status:         string(material.Status),
		IsSurplus:      material.IsSurplus,
		AttachmentIDs:  material.AttachmentIDs,
		CreatedAt:      material.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      material.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
