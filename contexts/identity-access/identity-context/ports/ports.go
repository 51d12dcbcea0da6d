package ports

import (
	"context"
	"time"

	"resupply/contexts/identity-access/identity-context/domain/entities"
)

// TokenClaims is the codec-level view of a credential.
type TokenClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and parses opaque credentials. Parse must report
// expiry and malformed tokens as the distinct domain failure kinds.
type TokenCodec interface {
	Sign(ctx context.Context, claims TokenClaims) (string, error)
	Parse(ctx context.Context, token string) (TokenClaims, error)
}

// SubjectDirectory resolves registered subjects and organizations.
type SubjectDirectory interface {
	GetSubject(ctx context.Context, userID string) (entities.Subject, error)
	GetOrganization(ctx context.Context, organizationID string) (entities.Organization, error)
}

type Clock interface {
	Now() time.Time
}
