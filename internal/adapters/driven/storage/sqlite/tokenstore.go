package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

// tokenStore implements driven.TokenStore.
type tokenStore struct {
	store *Store
}

var _ driven.TokenStore = (*tokenStore)(nil)

// Get retrieves the token for a (user, provider) pair.
func (s *tokenStore) Get(ctx context.Context, userID string, provider domain.ProviderID) (*domain.Token, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT access_token, refresh_token, expires_at, scopes
		FROM tokens
		WHERE user_id = ? AND provider = ?
	`, userID, string(provider))

	var (
		token      domain.Token
		expiresAt  sql.NullTime
		scopesJSON string
	)
	if err := row.Scan(&token.AccessToken, &token.RefreshToken, &expiresAt, &scopesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying token: %w", err)
	}

	if expiresAt.Valid {
		token.ExpiresAt = expiresAt.Time.UTC()
	}
	if err := json.Unmarshal([]byte(scopesJSON), &token.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshalling scopes: %w", err)
	}
	return &token, nil
}

// Put stores or replaces the token for a (user, provider) pair.
func (s *tokenStore) Put(ctx context.Context, userID string, provider domain.ProviderID, token domain.Token) error {
	scopesJSON, err := json.Marshal(token.Scopes)
	if err != nil {
		return fmt.Errorf("marshalling scopes: %w", err)
	}

	var expiresAt any
	if !token.ExpiresAt.IsZero() {
		expiresAt = token.ExpiresAt.UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO tokens (user_id, provider, access_token, refresh_token, expires_at, scopes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`, userID, string(provider), token.AccessToken, token.RefreshToken, expiresAt, string(scopesJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Remove deletes the token for a (user, provider) pair.
func (s *tokenStore) Remove(ctx context.Context, userID string, provider domain.ProviderID) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM tokens WHERE user_id = ? AND provider = ?
	`, userID, string(provider))
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}
