package driven

import (
	"context"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// TokenStore is the per-(user, provider) keyed store of tokens. The store
// performs no network I/O and makes no refresh decisions; refresh
// orchestration belongs to the dispatcher so the store stays a pure keyed
// map with a trivial contract.
type TokenStore interface {
	// Get returns the stored token, or domain.ErrNotFound.
	Get(ctx context.Context, userID string, provider domain.ProviderID) (*domain.Token, error)

	// Put stores or replaces the token for the key.
	Put(ctx context.Context, userID string, provider domain.ProviderID, token domain.Token) error

	// Remove deletes the token for the key. Removing an absent token is
	// not an error.
	Remove(ctx context.Context, userID string, provider domain.ProviderID) error
}

// ConnectionStore persists connection records alongside tokens.
type ConnectionStore interface {
	// Save stores or updates a connection, keyed by (UserID, Provider).
	Save(ctx context.Context, conn domain.Connection) error

	// Get returns the connection for the key, or domain.ErrNotFound.
	Get(ctx context.Context, userID string, provider domain.ProviderID) (*domain.Connection, error)

	// Delete removes the connection for the key. Deleting an absent
	// connection is not an error.
	Delete(ctx context.Context, userID string, provider domain.ProviderID) error

	// ListByUser returns all connections for a user.
	ListByUser(ctx context.Context, userID string) ([]domain.Connection, error)
}
