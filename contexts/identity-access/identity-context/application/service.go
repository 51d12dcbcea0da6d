package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"resupply/contexts/identity-access/identity-context/domain/entities"
	domainerrors "resupply/contexts/identity-access/identity-context/domain/errors"
	"resupply/contexts/identity-access/identity-context/ports"
)

// Service resolves credentials into identity contexts. Stateless per
// request; every call re-reads the subject directory.
type Service struct {
	Directory ports.SubjectDirectory
	Codec     ports.TokenCodec
	Clock     ports.Clock
	TokenTTL  time.Duration
	Logger    *slog.Logger
}

func (s Service) VerifyCredential(ctx context.Context, token string) (entities.IdentityContext, error) {
	logger := ResolveLogger(s.Logger)
	if strings.TrimSpace(token) == "" {
		return entities.IdentityContext{}, domainerrors.ErrCredentialMalformed
	}

	claims, err := s.Codec.Parse(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, domainerrors.ErrCredentialExpired) {
			logger.Info("credential rejected as expired",
				"event", "identity_credential_expired",
				"module", "identity-access/identity-context",
				"layer", "application",
			)
		}
		return entities.IdentityContext{}, err
	}

	subject, err := s.Directory.GetSubject(ctx, claims.UserID)
	if err != nil {
		logger.Warn("credential subject lookup failed",
			"event", "identity_subject_lookup_failed",
			"module", "identity-access/identity-context",
			"layer", "application",
			"user_id", claims.UserID,
			"error", err.Error(),
		)
		return entities.IdentityContext{}, err
	}
	if !subject.IsActive {
		return entities.IdentityContext{}, domainerrors.ErrSubjectDisabled
	}

	organization, err := s.Directory.GetOrganization(ctx, subject.OrganizationID)
	if err != nil {
		return entities.IdentityContext{}, err
	}
	if !organization.IsActive {
		return entities.IdentityContext{}, domainerrors.ErrOrganizationInactive
	}

	return entities.IdentityContext{
		UserID:               subject.UserID,
		OrganizationID:       organization.OrganizationID,
		OrganizationCategory: organization.Category,
		Role:                 subject.Role,
	}, nil
}

// IssueCredential mints a signed credential for a registered subject.
// Used by bootstrap seeding and operator tooling.
func (s Service) IssueCredential(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domainerrors.ErrInvalidInput
	}
	subject, err := s.Directory.GetSubject(ctx, userID)
	if err != nil {
		return "", err
	}
	if !subject.IsActive {
		return "", domainerrors.ErrSubjectDisabled
	}

	now := s.now()
	return s.Codec.Sign(ctx, ports.TokenClaims{
		UserID:    subject.UserID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenTTL()),
	})
}

func (s Service) GetOrganization(ctx context.Context, organizationID string) (entities.Organization, error) {
	if strings.TrimSpace(organizationID) == "" {
		return entities.Organization{}, domainerrors.ErrInvalidInput
	}
	return s.Directory.GetOrganization(ctx, strings.TrimSpace(organizationID))
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) tokenTTL() time.Duration {
	if s.TokenTTL <= 0 {
		return 12 * time.Hour
	}
	return s.TokenTTL
}
