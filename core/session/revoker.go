// Package session holds the contract for ending sessions before their token expires.
package session

import (
	"context"
	"time"
)

// Revoker remembers revoked token IDs until the token would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
