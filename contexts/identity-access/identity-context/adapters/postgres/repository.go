package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/identity-access/identity-context/domain/entities"
	domainerrors "resupply/contexts/identity-access/identity-context/domain/errors"

	"gorm.io/gorm"
)

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

type subjectModel struct {
	UserID         string    `gorm:"column:user_id;primaryKey"`
	OrganizationID string    `gorm:"column:organization_id;index"`
	Role           string    `gorm:"column:role"`
	IsActive       bool      `gorm:"column:is_active"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (subjectModel) TableName() string { return "subjects" }

type organizationModel struct {
	OrganizationID string    `gorm:"column:organization_id;primaryKey"`
	Name           string    `gorm:"column:name"`
	Category       string    `gorm:"column:category;index"`
	IsActive       bool      `gorm:"column:is_active"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (organizationModel) TableName() string { return "organizations" }

func (r *Repository) GetSubject(ctx context.Context, userID string) (entities.Subject, error) {
	var row subjectModel
	err := r.db.WithContext(ctx).First(&row, "user_id = ?", strings.TrimSpace(userID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Subject{}, domainerrors.ErrUnknownSubject
		}
		return entities.Subject{}, err
	}
	return entities.Subject{
		UserID:         row.UserID,
		OrganizationID: row.OrganizationID,
		Role:           entities.Role(row.Role),
		IsActive:       row.IsActive,
	}, nil
}

func (r *Repository) GetOrganization(ctx context.Context, organizationID string) (entities.Organization, error) {
	var row organizationModel
	err := r.db.WithContext(ctx).First(&row, "organization_id = ?", strings.TrimSpace(organizationID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Organization{}, domainerrors.ErrOrganizationNotFound
		}
		return entities.Organization{}, err
	}
	return entities.Organization{
		OrganizationID: row.OrganizationID,
		Name:           row.Name,
		Category:       row.Category,
		IsActive:       row.IsActive,
	}, nil
}

// SystemClock provides wall-clock time for credential expiry checks.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
