package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/exchange-core/transfer-workflow/domain/entities"
	domainerrors "resupply/contexts/exchange-core/transfer-workflow/domain/errors"
	"resupply/contexts/exchange-core/transfer-workflow/ports"

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

type transferRequestModel struct {
	RequestID          string          `gorm:"column:request_id;primaryKey"`
	MaterialID         string          `gorm:"column:material_id;index"`
	FromOrganizationID string          `gorm:"column:from_organization_id;index"`
	ToOrganizationID   string          `gorm:"column:to_organization_id;index"`
	RequestedBy        string          `gorm:"column:requested_by;index"`
	Quantity           decimal.Decimal `gorm:"column:quantity;type:numeric(20,6)"`
	Unit               string          `gorm:"column:unit"`
	Status             string          `gorm:"column:status;index"`
	DecidedBy          string          `gorm:"column:decided_by"`
	DecidedAt          *time.Time      `gorm:"column:decided_at"`
	CompletedAt        *time.Time      `gorm:"column:completed_at"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
}

func (transferRequestModel) TableName() string { return "transfer_requests" }

type transferCommentModel struct {
	CommentID string    `gorm:"column:comment_id;primaryKey"`
	RequestID string    `gorm:"column:request_id;index"`
	Type      string    `gorm:"column:comment_type"`
	AuthorID  string    `gorm:"column:author_id"`
	Body      string    `gorm:"column:body"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (transferCommentModel) TableName() string { return "transfer_comments" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload;type:jsonb"`
	Status       string     `gorm:"column:status;index"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (outboxModel) TableName() string { return "transfer_outbox" }

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

func (r *Repository) CreateRequest(ctx context.Context, request entities.TransferRequest, audit ports.AuditEntry, event ports.EventEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toModel(request)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidInput
			}
			return err
		}
		if err := insertComments(tx, request.RequestID, request.Comments); err != nil {
			return err
		}
		if err := r.insertAudit(tx, audit, nil, request); err != nil {
			return err
		}
		return insertOutbox(tx, event)
	})
}

func (r *Repository) GetRequest(ctx context.Context, requestID string) (entities.TransferRequest, error) {
	return r.loadRequest(r.db.WithContext(ctx), strings.TrimSpace(requestID))
}

func (r *Repository) ListRequests(ctx context.Context, filter ports.TransferFilter) ([]entities.TransferRequest, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&transferRequestModel{})
	if filter.OrganizationID != "" {
		query = query.Where("from_organization_id = ? OR to_organization_id = ?", filter.OrganizationID, filter.OrganizationID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var rows []transferRequestModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.TransferRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, fromModel(row, nil))
	}
	return items, nil
}

// UpdateRequest flips the row only while its status still equals
// expectedStatus. RowsAffected 0 with an existing row means another
// writer got there first.
func (r *Repository) UpdateRequest(ctx context.Context, request entities.TransferRequest, expectedStatus entities.TransferStatus, audit ports.AuditEntry, event ports.EventEnvelope) (entities.TransferRequest, error) {
	var result entities.TransferRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := r.loadRequest(tx, request.RequestID)
		if err != nil {
			return err
		}

		res := tx.Model(&transferRequestModel{}).
			Where("request_id = ? AND status = ?", request.RequestID, string(expectedStatus)).
			Updates(map[string]any{
				"status":       string(request.Status),
				"decided_by":   request.DecidedBy,
				"decided_at":   request.DecidedAt,
				"completed_at": request.CompletedAt,
				"updated_at":   request.UpdatedAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainerrors.ErrStatusConflict
		}

		if err := insertComments(tx, request.RequestID, newComments(before.Comments, request.Comments)); err != nil {
			return err
		}
		after, err := r.loadRequest(tx, request.RequestID)
		if err != nil {
			return err
		}
		result = after
		if err := r.insertAudit(tx, audit, &before, after); err != nil {
			return err
		}
		return insertOutbox(tx, event)
	})
	if err != nil {
		return entities.TransferRequest{}, err
	}
	return result, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	at := publishedAt.UTC()
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       "published",
			"published_at": &at,
		}).Error
}

func (r *Repository) loadRequest(tx *gorm.DB, requestID string) (entities.TransferRequest, error) {
	var row transferRequestModel
	if err := tx.First(&row, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TransferRequest{}, domainerrors.ErrTransferNotFound
		}
		return entities.TransferRequest{}, err
	}

	var comments []transferCommentModel
	if err := tx.Where("request_id = ?", requestID).Order("created_at ASC, comment_id ASC").Find(&comments).Error; err != nil {
		return entities.TransferRequest{}, err
	}
	return fromModel(row, comments), nil
}

func (r *Repository) insertAudit(tx *gorm.DB, audit ports.AuditEntry, before *entities.TransferRequest, after entities.TransferRequest) error {
	if audit.OrganizationID == "" {
		audit.OrganizationID = after.FromOrganizationID
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

func insertOutbox(tx *gorm.DB, event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       "pending",
		CreatedAt:    event.OccurredAt.UTC(),
	}).Error
}

func insertComments(tx *gorm.DB, requestID string, comments []entities.Comment) error {
	for _, comment := range comments {
		if err := tx.Create(&transferCommentModel{
			CommentID: comment.CommentID,
			RequestID: requestID,
			Type:      string(comment.Type),
			AuthorID:  comment.AuthorID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt.UTC(),
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// newComments returns the suffix of next not yet present in prior.
func newComments(prior []entities.Comment, next []entities.Comment) []entities.Comment {
	seen := make(map[string]struct{}, len(prior))
	for _, comment := range prior {
		seen[comment.CommentID] = struct{}{}
	}
	added := make([]entities.Comment, 0)
	for _, comment := range next {
		if _, ok := seen[comment.CommentID]; !ok {
			added = append(added, comment)
		}
	}
	return added
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func toModel(request entities.TransferRequest) transferRequestModel {
	return transferRequestModel{
		RequestID:          request.RequestID,
		MaterialID:         request.MaterialID,
		FromOrganizationID: request.FromOrganizationID,
		ToOrganizationID:   request.ToOrganizationID,
		RequestedBy:        request.RequestedBy,
		Quantity:           request.Quantity,
		Unit:               request.Unit,
		Status:             string(request.Status),
		DecidedBy:          request.DecidedBy,
		DecidedAt:          request.DecidedAt,
		CompletedAt:        request.CompletedAt,
		CreatedAt:          request.CreatedAt.UTC(),
		UpdatedAt:          request.UpdatedAt.UTC(),
	}
}

func fromModel(row transferRequestModel, comments []transferCommentModel) entities.TransferRequest {
	request := entities.TransferRequest{
		RequestID:          row.RequestID,
		MaterialID:         row.MaterialID,
		FromOrganizationID: row.FromOrganizationID,
		ToOrganizationID:   row.ToOrganizationID,
		RequestedBy:        row.RequestedBy,
		Quantity:           row.Quantity,
		Unit:               row.Unit,
		Status:             entities.TransferStatus(row.Status),
		DecidedBy:          row.DecidedBy,
		DecidedAt:          row.DecidedAt,
		CompletedAt:        row.CompletedAt,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
	for _, comment := range comments {
		request.Comments = append(request.Comments, entities.Comment{
			CommentID: comment.CommentID,
			Type:      entities.CommentType(comment.Type),
			AuthorID:  comment.AuthorID,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
		})
	}
	return request
}
