// Package identity adapts external identity providers: it turns bearer tokens
// into an external subject id and keeps the user's role mirrored into the
// provider's custom claims.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUnknownUser  = errors.New("identity provider has no such user")
)

// Claims is what the service needs from a verified token.
type Claims struct {
	Subject string
	Role    string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// ClaimStore reads and writes the role custom claim held by the provider.
type ClaimStore interface {
	GetRole(ctx context.Context, externalID string) (string, error)
	SetRole(ctx context.Context, externalID, role string) error
}

// SyncRole writes role to the store unless the store already holds it.
func SyncRole(ctx context.Context, store ClaimStore, externalID, role string) error {
	current, err := store.GetRole(ctx, externalID)
	if err == nil && current == role {
		return nil
	}
	return store.SetRole(ctx, externalID, role)
}

// NoopClaimStore is used when no provider admin credentials are configured.
type NoopClaimStore struct{}

func (NoopClaimStore) GetRole(context.Context, string) (string, error) { return "", nil }

func (NoopClaimStore) SetRole(context.Context, string, string) error { return nil }

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []Verifier

func (c ChainVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	for _, v := range c {
		claims, err := v.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
	}
	return nil, ErrInvalidToken
}
