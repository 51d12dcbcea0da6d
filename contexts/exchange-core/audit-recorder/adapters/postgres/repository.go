package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"resupply/contexts/exchange-core/audit-recorder/domain/entities"
)

const uniqueViolationCode = "23505"

// auditLogModel is the shared audit_log_entries row shape; every
// context that writes audit entries persists into this one table.
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

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&auditLogModel{})
}

// AppendEntry inserts one row. A unique violation on the dedup index
// means the mutation was already recorded; that is reported as not
// written, never as an error.
func (r *Repository) AppendEntry(ctx context.Context, entry entities.AuditLogEntry) (bool, error) {
	row := auditLogModel{
		AuditID:        entry.AuditID,
		OrganizationID: entry.OrganizationID,
		Entity:         entry.Entity,
		EntityID:       entry.EntityID,
		Action:         entry.Action,
		ChangedBy:      entry.ChangedBy,
		ChangedAt:      entry.ChangedAt.UTC(),
		Before:         entry.Before,
		After:          entry.After,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return false, nil
		}
		return false, fmt.Errorf("insert audit entry: %w", err)
	}
	return true, nil
}

func (r *Repository) ListByEntity(ctx context.Context, organizationID string, entity string, entityID string, limit int) ([]entities.AuditLogEntry, error) {
	var rows []auditLogModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND entity = ? AND entity_id = ?", organizationID, entity, entityID).
		Order("changed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries by entity: %w", err)
	}
	return toEntries(rows), nil
}

func (r *Repository) ListByActor(ctx context.Context, organizationID string, actorID string, limit int) ([]entities.AuditLogEntry, error) {
	var rows []auditLogModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND changed_by = ?", organizationID, actorID).
		Order("changed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries by actor: %w", err)
	}
	return toEntries(rows), nil
}

func (r *Repository) ListByTimeRange(ctx context.Context, organizationID string, from time.Time, to time.Time, limit int) ([]entities.AuditLogEntry, error) {
	var rows []auditLogModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND changed_at >= ? AND changed_at <= ?", organizationID, from.UTC(), to.UTC()).
		Order("changed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries by time range: %w", err)
	}
	return toEntries(rows), nil
}

func toEntries(rows []auditLogModel) []entities.AuditLogEntry {
	out := make([]entities.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entities.AuditLogEntry{
			AuditID:        row.AuditID,
			OrganizationID: row.OrganizationID,
			Entity:         row.Entity,
			EntityID:       row.EntityID,
			Action:         row.Action,
			ChangedBy:      row.ChangedBy,
			ChangedAt:      row.ChangedAt,
			Before:         json.RawMessage(row.Before),
			After:          json.RawMessage(row.After),
		})
	}
	return out
}
