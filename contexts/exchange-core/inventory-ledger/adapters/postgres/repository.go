package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/exchange-core/inventory-ledger/domain/entities"
	domainerrors "resupply/contexts/exchange-core/inventory-ledger/domain/errors"
	"resupply/contexts/exchange-core/inventory-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

type materialModel struct {
	MaterialID           string          `gorm:"column:material_id;primaryKey"`
	OrganizationID       string          `gorm:"column:organization_id;index"`
	OrganizationCategory string          `gorm:"column:organization_category;index"`
	Name                 string          `gorm:"column:name"`
	Description          string          `gorm:"column:description"`
	Quantity             decimal.Decimal `gorm:"column:quantity;type:numeric(20,6)"`
	ListedQuantity       decimal.Decimal `gorm:"column:listed_quantity;type:numeric(20,6)"`
	Unit                 string          `gorm:"column:unit"`
	Status               string          `gorm:"column:status;index"`
	IsSurplus            bool            `gorm:"column:is_surplus"`
	AttachmentIDs        string          `gorm:"column:attachment_ids"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
}

func (materialModel) TableName() string { return "materials" }

type allocationModel struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	MaterialID        string          `gorm:"column:material_id;index"`
	TransferRequestID string          `gorm:"column:transfer_request_id;index"`
	Quantity          decimal.Decimal `gorm:"column:quantity;type:numeric(20,6)"`
	AllocatedAt       time.Time       `gorm:"column:allocated_at"`
	AllocatedBy       string          `gorm:"column:allocated_by"`
}

func (allocationModel) TableName() string { return "material_allocations" }

type auditLogModel struct {
	AuditID        string    `gorm:"column:audit_id;primaryKey"`
	OrganizationID string    `gorm:"column:organization_id;index"`
	Entity         string    `gorm:"column:entity"`
	EntityID       string    `gorm:"column:entity_id;index:idx_audit_dedup,unique"`
	Action         string    `gorm:"column:action;index:idx_audit_dedup,unique"`
	ChangedBy      string    `gorm:"column:changed_by;index"`
	ChangedAt      time.Time `gorm:"column:changed_at;index:idx_audit_dedup,unique"`
	Before         []byte    `gorm:"column:before_snapshot;type:jsonb"`
	After          []byte    `gorm:"column:after_snapshot;type:jsonb"`
}

func (auditLogModel) TableName() string { return "audit_log_entries" }

func (r *Repository) CreateMaterial(ctx context.Context, material entities.Material, audit ports.AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toModel(material)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrMaterialExists
			}
			return err
		}
		return r.insertAudit(tx, audit, nil, material)
	})
}

func (r *Repository) GetMaterial(ctx context.Context, materialID string) (entities.Material, error) {
	return r.loadMaterial(r.db.WithContext(ctx), strings.TrimSpace(materialID))
}

func (r *Repository) ListSurplusByCategory(ctx context.Context, filter ports.SurplusFilter) ([]entities.Material, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var rows []materialModel
	err := r.db.WithContext(ctx).
		Where("organization_category = ? AND is_surplus = ? AND status = ?", filter.Category, true, string(entities.MaterialStatusAvailable)).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Material, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row, nil))
	}
	return items, nil
}

func (r *Repository) UpdateDetails(ctx context.Context, update ports.MaterialDetailsUpdate, updatedAt time.Time, audit ports.AuditEntry) (entities.Material, error) {
	var result entities.Material
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.loadMaterial(tx, update.MaterialID)
		if err != nil {
			return err
		}

		fields := map[string]any{"updated_at": updatedAt.UTC()}
		if update.Name != nil {
			fields["name"] = strings.TrimSpace(*update.Name)
		}
		if update.Description != nil {
			fields["description"] = strings.TrimSpace(*update.Description)
		}
		if update.Unit != nil {
			fields["unit"] = strings.TrimSpace(*update.Unit)
		}
		if update.IsSurplus != nil {
			fields["is_surplus"] = *update.IsSurplus
		}
		if err := tx.Model(&materialModel{}).Where("material_id = ?", update.MaterialID).Updates(fields).Error; err != nil {
			return err
		}

		after, err := r.loadMaterial(tx, update.MaterialID)
		if err != nil {
			return err
		}
		result = after
		return r.insertAudit(tx, audit, &before, after)
	})
	if err != nil {
		return entities.Material{}, err
	}
	return result, nil
}

func (r *Repository) ArchiveMaterial(ctx context.Context, materialID string, archivedAt time.Time, audit ports.AuditEntry) (entities.Material, error) {
	var result entities.Material
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.loadMaterial(tx, materialID)
		if err != nil {
			return err
		}
		if before.Status == entities.MaterialStatusReserved {
			return domainerrors.ErrActiveReservation
		}
		if before.Status == entities.MaterialStatusArchived {
			result = before
			return nil
		}

		res := tx.Model(&materialModel{}).
			Where("material_id = ? AND status = ?", materialID, string(before.Status)).
			Updates(map[string]any{
				"status":     string(entities.MaterialStatusArchived),
				"updated_at": archivedAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainerrors.ErrMaterialUnavailable
		}

		after, err := r.loadMaterial(tx, materialID)
		if err != nil {
			return err
		}
		result = after
		return r.insertAudit(tx, audit, &before, after)
	})
	if err != nil {
		return entities.Material{}, err
	}
	return result, nil
}

// ReserveQuantity is a single conditional decrement: the WHERE clause
// carries the eligibility and quantity guard, so two concurrent
// approvals can never both succeed past availability.
func (r *Repository) ReserveQuantity(ctx context.Context, input ports.AllocationInput, audit ports.AuditEntry) (entities.Material, error) {
	var result entities.Material
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.loadMaterial(tx, input.MaterialID)
		if err != nil {
			return err
		}

		res := tx.Model(&materialModel{}).
			Where("material_id = ? AND status = ? AND is_surplus = ? AND quantity >= ?",
				input.MaterialID, string(entities.MaterialStatusAvailable), true, input.Quantity).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity - ?", input.Quantity),
				"updated_at": input.At.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if !before.EligibleForTransfer() {
				return domainerrors.ErrMaterialUnavailable
			}
			return domainerrors.ErrInsufficientQuantity
		}

		if err := tx.Model(&materialModel{}).
			Where("material_id = ? AND quantity = 0", input.MaterialID).
			Update("status", string(entities.MaterialStatusReserved)).Error; err != nil {
			return err
		}
		if err := tx.Create(&allocationModel{
			MaterialID:        input.MaterialID,
			TransferRequestID: input.TransferRequestID,
			Quantity:          input.Quantity,
			AllocatedAt:       input.At.UTC(),
			AllocatedBy:       input.ActorID,
		}).Error; err != nil {
			return err
		}

		after, err := r.loadMaterial(tx, input.MaterialID)
		if err != nil {
			return err
		}
		result = after
		return r.insertAudit(tx, audit, &before, after)
	})
	if err != nil {
		return entities.Material{}, err
	}
	return result, nil
}

func (r *Repository) ReleaseQuantity(ctx context.Context, input ports.AllocationInput, audit ports.AuditEntry) (entities.Material, error) {
	var result entities.Material
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.loadMaterial(tx, input.MaterialID)
		if err != nil {
			return err
		}
		outstanding := before.AllocatedToRequest(input.TransferRequestID)
		if !outstanding.IsPositive() || input.Quantity.GreaterThan(outstanding) {
			return domainerrors.ErrAllocationNotFound
		}

		if err := tx.Model(&materialModel{}).
			Where("material_id = ?", input.MaterialID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", input.Quantity),
				"updated_at": input.At.UTC(),
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&materialModel{}).
			Where("material_id = ? AND status = ?", input.MaterialID, string(entities.MaterialStatusReserved)).
			Update("status", string(entities.MaterialStatusAvailable)).Error; err != nil {
			return err
		}
		if err := tx.Create(&allocationModel{
			MaterialID:        input.MaterialID,
			TransferRequestID: input.TransferRequestID,
			Quantity:          input.Quantity.Neg(),
			AllocatedAt:       input.At.UTC(),
			AllocatedBy:       input.ActorID,
		}).Error; err != nil {
			return err
		}

		after, err := r.loadMaterial(tx, input.MaterialID)
		if err != nil {
			return err
		}
		result = after
		return r.insertAudit(tx, audit, &before, after)
	})
	if err != nil {
		return entities.Material{}, err
	}
	return result, nil
}

func (r *Repository) MarkTransferred(ctx context.Context, materialID string, transferRequestID string, at time.Time, audit ports.AuditEntry) (entities.Material, error) {
	var result entities.Material
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.loadMaterial(tx, materialID)
		if err != nil {
			return err
		}
		if !before.AllocatedToRequest(transferRequestID).IsPositive() {
			return domainerrors.ErrAllocationNotFound
		}
		if !before.Quantity.IsZero() {
			result = before
			return nil
		}

		if err := tx.Model(&materialModel{}).
			Where("material_id = ?", materialID).
			Updates(map[string]any{
				"status":     string(entities.MaterialStatusTransferred),
				"updated_at": at.UTC(),
			}).Error; err != nil {
			return err
		}

		after, err := r.loadMaterial(tx, materialID)
		if err != nil {
			return err
		}
		result = after
		return r.insertAudit(tx, audit, &before, after)
	})
	if err != nil {
		return entities.Material{}, err
	}
	return result, nil
}

func (r *Repository) loadMaterial(tx *gorm.DB, materialID string) (entities.Material, error) {
	var row materialModel
	if err := tx.First(&row, "material_id = ?", materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Material{}, domainerrors.ErrMaterialNotFound
		}
		return entities.Material{}, err
	}

	var allocations []allocationModel
	if err := tx.Where("material_id = ?", materialID).Order("allocated_at ASC, id ASC").Find(&allocations).Error; err != nil {
		return entities.Material{}, err
	}
	return fromModel(row, allocations), nil
}

func (r *Repository) insertAudit(tx *gorm.DB, audit ports.AuditEntry, before *entities.Material, after entities.Material) error {
	if audit.OrganizationID == "" {
		audit.OrganizationID = after.OrganizationID
	}
	row := auditLogModel{
		AuditID:        audit.AuditID,
		OrganizationID: audit.OrganizationID,
		Entity:         audit.Entity,
		EntityID:       audit.EntityID,
		Action:         audit.Action,
		ChangedBy:      audit.ChangedBy,
		ChangedAt:      audit.ChangedAt.UTC(),
	}
	if before != nil {
		row.Before = snapshotJSON(*before)
	}
	row.After = snapshotJSON(after)

	if err := tx.Create(&row).Error; err != nil {
		// Duplicate (entity_id, action, changed_at) means this mutation
		// was already audited by a retried unit of work.
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func toModel(material entities.Material) materialModel {
	return materialModel{
		MaterialID:           material.MaterialID,
		OrganizationID:       material.OrganizationID,
		OrganizationCategory: material.OrganizationCategory,
		Name:                 material.Name,
		Description:          material.Description,
		Quantity:             material.Quantity,
		ListedQuantity:       material.ListedQuantity,
		Unit:                 material.Unit,
		Status:               string(material.Status),
		IsSurplus:            material.IsSurplus,
		AttachmentIDs:        strings.Join(material.AttachmentIDs, ","),
		CreatedAt:            material.CreatedAt.UTC(),
		UpdatedAt:            material.UpdatedAt.UTC(),
	}
}

func fromModel(row materialModel, allocations []allocationModel) entities.Material {
	material := entities.Material{
		MaterialID:           row.MaterialID,
		OrganizationID:       row.OrganizationID,
		OrganizationCategory: row.OrganizationCategory,
		Name:                 row.Name,
		Description:          row.Description,
		Quantity:             row.Quantity,
		ListedQuantity:       row.ListedQuantity,
		Unit:                 row.Unit,
		Status:               entities.MaterialStatus(row.Status),
		IsSurplus:            row.IsSurplus,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if row.AttachmentIDs != "" {
		material.AttachmentIDs = strings.Split(row.AttachmentIDs, ",")
	}
	for _, allocation := range allocations {
		material.AllocationHistory = append(material.AllocationHistory, entities.AllocationEntry{
			TransferRequestID: allocation.TransferRequestID,
			Quantity:          allocation.Quantity,
			AllocatedAt:       allocation.AllocatedAt,
			AllocatedBy:       allocation.AllocatedBy,
		})
	}
	return material
}
