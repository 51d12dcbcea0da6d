package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"
	domainerrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	"resupply/contexts/exchange-core/inventory-ledger/ports"
)

const (
	entityMaterial = "material"

	actionMaterialCreated     = "material.created"
	actionMaterialUpdated     = "material.updated"
	actionMaterialArchived    = "material.archived"
	actionMaterialReserved    = "material.reserved"
	actionMaterialReleased    = "material.released"
	actionMaterialTransferred = "material.transferred"
)

// Service owns material master data and the quantity-allocation ledger.
type Service struct {
	Repo        ports.Repository
	Gate        ports.AccessGate
	Attachments ports.AttachmentChecker
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func (s Service) CreateMaterial(ctx context.Context, identity ports.Identity, input ports.CreateMaterialInput) (entities.Material, error) {
	logger := ResolveLogger(s.Logger)

	if !input.Quantity.IsPositive() {
		return entities.Material{}, domainerrors.ErrNonPositiveQuantity
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Unit) == "" {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}

	if err := s.authorize(ctx, identity, "material.create", ports.GateResource{
		OwnerOrganizationID: identity.OrganizationID,
		Category:            identity.OrganizationCategory,
	}); err != nil {
		return entities.Material{}, err
	}
	if err := s.checkAttachments(ctx, input.AttachmentIDs); err != nil {
		return entities.Material{}, err
	}

	materialID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Material{}, err
	}
	now := s.now()
	material := entities.Material{
		MaterialID:           materialID,
		OrganizationID:       identity.OrganizationID,
		OrganizationCategory: identity.OrganizationCategory,
		Name:                 strings.TrimSpace(input.Name),
		Description:          strings.TrimSpace(input.Description),
		Quantity:             input.Quantity,
		ListedQuantity:       input.Quantity,
		Unit:                 strings.TrimSpace(input.Unit),
		Status:               entities.MaterialStatusAvailable,
		IsSurplus:            input.IsSurplus,
		AttachmentIDs:        input.AttachmentIDs,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if !material.ValidateCreate() {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}

	audit, err := s.auditTemplate(ctx, identity.OrganizationID, materialID, actionMaterialCreated, identity.UserID, now)
	if err != nil {
		return entities.Material{}, err
	}
	if err := s.Repo.CreateMaterial(ctx, material, audit); err != nil {
		return entities.Material{}, err
	}

	logger.Info("material listed",
		"event", "ledger_material_created",
		"module", "exchange-core/inventory-ledger",
		"layer", "application",
		"material_id", materialID,
		"organization_id", identity.OrganizationID,
		"quantity", material.Quantity.String(),
		"unit", material.Unit,
	)
	return material, nil
}

func (s Service) GetMaterial(ctx context.Context, identity ports.Identity, materialID string) (entities.Material, error) {
	material, err := s.Repo.GetMaterial(ctx, strings.TrimSpace(materialID))
	if err != nil {
		return entities.Material{}, err
	}
	if err := s.authorize(ctx, identity, "material.read", ports.GateResource{
		OwnerOrganizationID: material.OrganizationID,
		Category:            material.OrganizationCategory,
	}); err != nil {
		return entities.Material{}, err
	}
	return material, nil
}

// ListSurplus returns surplus listings discoverable by the caller.
// Visibility is category-scoped: callers see listings from organizations
// in their own category.
func (s Service) ListSurplus(ctx context.Context, identity ports.Identity, limit int, offset int) ([]entities.Material, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListSurplusByCategory(ctx, ports.SurplusFilter{
		Category: identity.OrganizationCategory,
		Limit:    limit,
		Offset:   offset,
	})
}

// UpdateMaterialDetails applies the explicit allow-list of mutable
// fields. Quantity, status, owner, and category are never patchable.
func (s Service) UpdateMaterialDetails(ctx context.Context, identity ports.Identity, update ports.MaterialDetailsUpdate) (entities.Material, error) {
	update.MaterialID = strings.TrimSpace(update.MaterialID)
	if update.MaterialID == "" {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}
	if update.Name == nil && update.Description == nil && update.Unit == nil && update.IsSurplus == nil {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}
	if update.Unit != nil && strings.TrimSpace(*update.Unit) == "" {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}

	material, err := s.Repo.GetMaterial(ctx, update.MaterialID)
	if err != nil {
		return entities.Material{}, err
	}
	if err := s.authorize(ctx, identity, "material.update", ports.GateResource{
		OwnerOrganizationID: material.OrganizationID,
		Category:            material.OrganizationCategory,
	}); err != nil {
		return entities.Material{}, err
	}

	now := s.now()
	audit, err := s.auditTemplate(ctx, material.OrganizationID, material.MaterialID, actionMaterialUpdated, identity.UserID, now)
	if err != nil {
		return entities.Material{}, err
	}
	return s.Repo.UpdateDetails(ctx, update, now, audit)
}

func (s Service) ArchiveMaterial(ctx context.Context, identity ports.Identity, materialID string) (entities.Material, error) {
	materialID = strings.TrimSpace(materialID)
	material, err := s.Repo.GetMaterial(ctx, materialID)
	if err != nil {
		return entities.Material{}, err
	}
	if err := s.authorize(ctx, identity, "material.archive", ports.GateResource{
		OwnerOrganizationID: material.OrganizationID,
		Category:            material.OrganizationCategory,
	}); err != nil {
		return entities.Material{}, err
	}

	now := s.now()
	audit, err := s.auditTemplate(ctx, material.OrganizationID, materialID, actionMaterialArchived, identity.UserID, now)
	if err != nil {
		return entities.Material{}, err
	}
	archived, err := s.Repo.ArchiveMaterial(ctx, materialID, now, audit)
	if err != nil {
		return entities.Material{}, err
	}

	ResolveLogger(s.Logger).Info("material archived",
		"event", "ledger_material_archived",
		"module", "exchange-core/inventory-ledger",
		"layer", "application",
		"material_id", materialID,
		"organization_id", material.OrganizationID,
	)
	return archived, nil
}

// Reserve provisionally decrements available quantity for one transfer
// request. The caller (workflow engine) has already cleared the gate.
func (s Service) Reserve(ctx context.Context, input ports.ReserveInput) (entities.Material, error) {
	if err := validateAllocation(input); err != nil {
		return entities.Material{}, err
	}

	now := s.now()
	audit, err := s.auditTemplate(ctx, "", input.MaterialID, actionMaterialReserved, input.ActorID, now)
	if err != nil {
		return entities.Material{}, err
	}
	material, err := s.Repo.ReserveQuantity(ctx, ports.AllocationInput{
		MaterialID:        strings.TrimSpace(input.MaterialID),
		TransferRequestID: strings.TrimSpace(input.TransferRequestID),
		ActorID:           strings.TrimSpace(input.ActorID),
		Quantity:          input.Quantity,
		At:                now,
	}, audit)
	if err != nil {
		return entities.Material{}, err
	}

	ResolveLogger(s.Logger).Info("quantity reserved",
		"event", "ledger_quantity_reserved",
		"module", "exchange-core/inventory-ledger",
		"layer", "application",
		"material_id", input.MaterialID,
		"transfer_request_id", input.TransferRequestID,
		"quantity", input.Quantity.String(),
		"remaining", material.Quantity.String(),
	)
	return material, nil
}

// Release reverses a prior reservation after a rejection or
// cancellation, restoring the reserved quantity.
func (s Service) Release(ctx context.Context, input ports.ReserveInput) (entities.Material, error) {
	if err := validateAllocation(input); err != nil {
		return entities.Material{}, err
	}

	now := s.now()
	audit, err := s.auditTemplate(ctx, "", input.MaterialID, actionMaterialReleased, input.ActorID, now)
	if err != nil {
		return entities.Material{}, err
	}
	material, err := s.Repo.ReleaseQuantity(ctx, ports.AllocationInput{
		MaterialID:        strings.TrimSpace(input.MaterialID),
		TransferRequestID: strings.TrimSpace(input.TransferRequestID),
		ActorID:           strings.TrimSpace(input.ActorID),
		Quantity:          input.Quantity,
		At:                now,
	}, audit)
	if err != nil {
		return entities.Material{}, err
	}

	ResolveLogger(s.Logger).Info("reservation released",
		"event", "ledger_quantity_released",
		"module", "exchange-core/inventory-ledger",
		"layer", "application",
		"material_id", input.MaterialID,
		"transfer_request_id", input.TransferRequestID,
		"quantity", input.Quantity.String(),
		"remaining", material.Quantity.String(),
	)
	return material, nil
}

// MarkTransferred finalizes a completed transfer. The material flips to
// transferred only when nothing remains; partial allocation leaves the
// remainder open for further requests.
func (s Service) MarkTransferred(ctx context.Context, materialID string, transferRequestID string, actorID string) (entities.Material, error) {
	materialID = strings.TrimSpace(materialID)
	transferRequestID = strings.TrimSpace(transferRequestID)
	if materialID == "" || transferRequestID == "" {
		return entities.Material{}, domainerrors.ErrInvalidInput
	}

	now := s.now()
	audit, err := s.auditTemplate(ctx, "", materialID, actionMaterialTransferred, actorID, now)
	if err != nil {
		return entities.Material{}, err
	}
	return s.Repo.MarkTransferred(ctx, materialID, transferRequestID, now, audit)
}

func (s Service) authorize(ctx context.Context, identity ports.Identity, action string, resource ports.GateResource) error {
	allowed, reason, err := s.Gate.Decide(ctx, identity, action, resource)
	if err != nil {
		return err
	}
	if !allowed {
		ResolveLogger(s.Logger).Warn("ledger action denied",
			"event", "ledger_action_denied",
			"module", "exchange-core/inventory-ledger",
			"layer", "application",
			"user_id", identity.UserID,
			"action", action,
			"reason", reason,
		)
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) checkAttachments(ctx context.Context, attachmentIDs []string) error {
	if s.Attachments == nil {
		return nil
	}
	for _, attachmentID := range attachmentIDs {
		exists, err := s.Attachments.AttachmentExists(ctx, strings.TrimSpace(attachmentID))
		if err != nil {
			return err
		}
		if !exists {
			return domainerrors.ErrAttachmentNotFound
		}
	}
	return nil
}

func (s Service) auditTemplate(ctx context.Context, organizationID string, entityID string, action string, actorID string, at time.Time) (ports.AuditEntry, error) {
	auditID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.AuditEntry{}, err
	}
	return ports.AuditEntry{
		AuditID:        auditID,
		OrganizationID: organizationID,
		Entity:         entityMaterial,
		EntityID:       entityID,
		Action:         action,
		ChangedBy:      strings.TrimSpace(actorID),
		ChangedAt:      at,
	}, nil
}

func validateAllocation(input ports.ReserveInput) error {
	if strings.TrimSpace(input.MaterialID) == "" ||
		strings.TrimSpace(input.TransferRequestID) == "" ||
		strings.TrimSpace(input.ActorID) == "" {
		return domainerrors.ErrInvalidInput
	}
	if !input.Quantity.IsPositive() {
		return domainerrors.ErrNonPositiveQuantity
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
