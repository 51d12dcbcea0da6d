package jwtcodec

import (
	"context"
	"errors"
	"strings"

	domainerrors "resupply/contexts/identity-access/identity-context/domain/errors"
	"resupply/contexts/identity-access/identity-context/ports"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "resupply"

// Codec signs and parses HS256 credentials. All parse failures map to
// the domain failure kinds so callers never see library errors.
type Codec struct {
	Secret []byte
}

func New(secret []byte) (Codec, error) {
	if len(secret) == 0 {
		return Codec{}, errors.New("jwt signing secret is required")
	}
	return Codec{Secret: secret}, nil
}

func (c Codec) Sign(_ context.Context, claims ports.TokenClaims) (string, error) {
	if strings.TrimSpace(claims.UserID) == "" {
		return "", domainerrors.ErrInvalidInput
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strings.TrimSpace(claims.UserID),
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt.UTC()),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt.UTC()),
	})
	return token.SignedString(c.Secret)
}

func (c Codec) Parse(_ context.Context, raw string) (ports.TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domainerrors.ErrCredentialMalformed
		}
		return c.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, domainerrors.ErrCredentialExpired
		}
		return ports.TokenClaims{}, domainerrors.ErrCredentialMalformed
	}
	if !parsed.Valid {
		return ports.TokenClaims{}, domainerrors.ErrCredentialMalformed
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return ports.TokenClaims{}, domainerrors.ErrCredentialMalformed
	}

	result := ports.TokenClaims{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}
