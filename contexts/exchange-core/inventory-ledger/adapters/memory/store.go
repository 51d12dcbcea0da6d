package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"
	domainerrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	"resupply/contexts/exchange-core/inventory-ledger/ports"
)

// Store keeps materials under a single mutex. The conditional check,
// ledger append, and audit append happen inside one critical section,
// so concurrent reservations against the same material serialize and
// the loser observes the decremented quantity.
type Store struct {
	mu sync.RWMutex

	materials map[string]entities.Material
	audit     ports.AuditSink
}

func NewStore(audit ports.AuditSink) *Store {
	return &Store{
		materials: make(map[string]entities.Material),
		audit:     audit,
	}
}

func (s *Store) CreateMaterial(ctx context.Context, material entities.Material, audit ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(material.MaterialID)
	if id == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.materials[id]; exists {
		return domainerrors.ErrMaterialExists
	}

	if err := s.appendAudit(ctx, audit, nil, material); err != nil {
		return err
	}
	s.materials[id] = cloneMaterial(material)
	return nil
}

func (s *Store) GetMaterial(_ context.Context, materialID string) (entities.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	material, ok := s.materials[strings.TrimSpace(materialID)]
	if !ok {
		return entities.Material{}, domainerrors.ErrMaterialNotFound
	}
	return cloneMaterial(material), nil
}

func (s *Store) ListSurplusByCategory(_ context.Context, filter ports.SurplusFilter) ([]entities.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	items := make([]entities.Material, 0)
	for _, material := range s.materials {
		if !material.EligibleForTransfer() {
			continue
		}
		if material.OrganizationCategory != filter.Category {
			continue
		}
		items = append(items, cloneMaterial(material))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []entities.Material{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (s *Store) UpdateDetails(ctx context.Context, update ports.MaterialDetailsUpdate, updatedAt time.Time, audit ports.AuditEntry) (entities.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[strings.TrimSpace(update.MaterialID)]
	if !ok {
		return entities.Material{}, domainerrors.ErrMaterialNotFound
	}

	before := cloneMaterial(material)
	next := cloneMaterial(material)
	if update.Name != nil {
		next.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		next.Description = strings.TrimSpace(*update.Description)
	}
	if update.Unit != nil {
		next.Unit = strings.TrimSpace(*update.Unit)
	}
	if update.IsSurplus != nil {
		next.IsSurplus = *update.IsSurplus
	}
	next.UpdatedAt = updatedAt.UTC()

	if err := s.appendAudit(ctx, audit, &before, next); err != nil {
		return entities.Material{}, err
	}
	s.materials[next.MaterialID] = cloneMaterial(next)
	return next, nil
}

func (s *Store) ArchiveMaterial(ctx context.Context, materialID string, archivedAt time.Time, audit ports.AuditEntry) (entities.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[strings.TrimSpace(materialID)]
	if !ok {
		return entities.Material{}, domainerrors.ErrMaterialNotFound
	}
	if material.Status == entities.MaterialStatusReserved {
		return entities.Material{}, domainerrors.ErrActiveReservation
	}
	if material.Status == entities.MaterialStatusArchived {
		return cloneMaterial(material), nil
	}

	before := cloneMaterial(material)
	next := cloneMaterial(material)
	next.Status = entities.MaterialStatusArchived
	next.UpdatedAt = archivedAt.UTC()

	if err := s.appendAudit(ctx, audit, &before, next); err != nil {
		return entities.Material{}, err
	}
	s.materials[next.MaterialID] = cloneMaterial(next)
	return next, nil
}

func (s *Store) ReserveQuantity(ctx context.Context, input ports.AllocationInput, audit ports.AuditEntry) (entities.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[strings.TrimSpace(input.MaterialID)]
	if !ok {
		return entities.Material{}, domainerrors.ErrMaterialNotFound
	}
	if !material.EligibleForTransfer() {
		return entities.Material{}, domainerrors.ErrMaterialUnavailable
	}
	if input.Quantity.GreaterThan(material.Quantity) {
		return entities.Material{}, domainerrors.ErrInsufficientQuantity
	}

	before := cloneMaterial(material)
	next := cloneMaterial(material)
	next.Quantity = next.Quantity.Sub(input.Quantity)
	next.AllocationHistory = append(next.AllocationHistory, entities.AllocationEntry{
		TransferRequestID: input.TransferRequestID,
		Quantity:          input.Quantity,
		AllocatedAt:       input.At.UTC(),
		AllocatedBy:       input.ActorID,
	})
	if next.Quantity.IsZero() {
		next.Status = entities.MaterialStatusReserved
	}
	next.UpdatedAt = input.At.UTC()

	if err := s.appendAudit(ctx, audit, &before, next); err != nil {
		return entities.Material{}, err
	}
	s.materials[next.MaterialID] = cloneMaterial(next)
	return next, nil
}

func (s *Store) ReleaseQuantity(ctx context.Context, input ports.AllocationInput, audit ports.AuditEntry) (entities.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[strings.TrimSpace(input.MaterialID)]
	if !ok {
		return entities.Material{}, domainerrors.ErrMaterialNotFound
	}
	outstanding := material.AllocatedToRequest(strings.TrimSpace(input.TransferRequestID))
	if !outstanding.IsPositive() || input.Quantity.GreaterThan(outstanding) {
		return entities.Material{}, domainerrors.ErrAllocationNotFound
	}

	before := cloneMaterial(material)
	next := cloneMaterial(material)
	next.Quantity = next.Quantity.Add(input.Quantity)
	next.AllocationHistory = append(next.AllocationHistory, entities.AllocationEntry{
		TransferRequestID: input.TransferRequestID,
		Quantity:          input.Quantity.Neg(),
		AllocatedAt:       input.At.UTC(),
		AllocatedBy:       input.ActorID,
	})
	if next.Status == entities.MaterialStatusReserved {
		next.Status = entities.MaterialStatusAvailable
	}
	next.UpdatedAt = input.At.UTC()

	if err := s.appendAudit(ctx, audit, &before, next); err != nil {
		return entities.Material{}, err
	}
	s.materials[next.MaterialID] = cloneMaterial(next)
	return next, nil
}

func (s *Store) MarkTransferred(ctx context.Context, materialID string, transferRequestID string, at time.Time, audit ports.AuditEntry) (entities.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.materials[strings.TrimSpace(materialID)]
	if !ok {
		return entities.Material{}, domainerrors.ErrMaterialNotFound
	}
	if !material.AllocatedToRequest(strings.TrimSpace(transferRequestID)).IsPositive() {
		return entities.Material{}, domainerrors.ErrAllocationNotFound
	}
	if !material.Quantity.IsZero() {
		// Partial allocation: the remainder stays open for new requests.
		return cloneMaterial(material), nil
	}

	before := cloneMaterial(material)
	next := cloneMaterial(material)
	next.Status = entities.MaterialStatusTransferred
	next.UpdatedAt = at.UTC()

	if err := s.appendAudit(ctx, audit, &before, next); err != nil {
		return entities.Material{}, err
	}
	s.materials[next.MaterialID] = cloneMaterial(next)
	return next, nil
}

func (s *Store) appendAudit(ctx context.Context, audit ports.AuditEntry, before *entities.Material, after entities.Material) error {
	if s.audit == nil {
		return nil
	}
	if audit.OrganizationID == "" {
		audit.OrganizationID = after.OrganizationID
	}
	if before != nil {
		raw, err := json.Marshal(snapshot(*before))
		if err != nil {
			return err
		}
		audit.Before = raw
	}
	raw, err := json.Marshal(snapshot(after))
	if err != nil {
		return err
	}
	audit.After = raw
	return s.audit.Append(ctx, audit)
}

// snapshot is the audit-facing material shape. Decimal fields serialize
// as strings to keep snapshots exact.
type snapshotModel struct {
	MaterialID     string `json:"material_id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	ListedQuantity string `json:"listed_quantity"`
	Unit           string `json:"unit"`
	Status         string `json:"status"`
	IsSurplus      bool   `json:"is_surplus"`
	Allocations    int    `json:"allocations"`
}

func snapshot(material entities.Material) snapshotModel {
	return snapshotModel{
		MaterialID:     material.MaterialID,
		OrganizationID: material.OrganizationID,
		Name:           material.Name,
		Quantity:       material.Quantity.String(),
		ListedQuantity: material.ListedQuantity.String(),
		Unit:           material.Unit,
		Status:         string(material.Status),
		IsSurplus:      material.IsSurplus,
		Allocations:    len(material.AllocationHistory),
	}
}

func cloneMaterial(material entities.Material) entities.Material {
	clone := material
	clone.AttachmentIDs = append([]string(nil), material.AttachmentIDs...)
	clone.AllocationHistory = append([]entities.AllocationEntry(nil), material.AllocationHistory...)
	return clone
}

// Now implements the clock port for wiring convenience in tests.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}
