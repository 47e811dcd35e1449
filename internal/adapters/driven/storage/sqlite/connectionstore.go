package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

// connectionStore implements driven.ConnectionStore.
type connectionStore struct {
	store *Store
}

var _ driven.ConnectionStore = (*connectionStore)(nil)

// Save stores or updates a connection, keyed by (UserID, Provider).
func (s *connectionStore) Save(ctx context.Context, conn domain.Connection) error {
	var lastSync any
	if !conn.LastSyncAt.IsZero() {
		lastSync = conn.LastSyncAt.UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO connections (id, user_id, provider, connected, last_sync_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			id = excluded.id,
			connected = excluded.connected,
			last_sync_at = excluded.last_sync_at
	`, conn.ID, conn.UserID, string(conn.Provider), conn.Connected, lastSync)
	if err != nil {
		return fmt.Errorf("storing connection: %w", err)
	}
	return nil
}

// Get retrieves the connection for a (user, provider) pair.
func (s *connectionStore) Get(ctx context.Context, userID string, provider domain.ProviderID) (*domain.Connection, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, connected, last_sync_at
		FROM connections
		WHERE user_id = ? AND provider = ?
	`, userID, string(provider))

	conn, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("querying connection: %w", err)
	}
	return conn, nil
}

// Delete removes the connection for a (user, provider) pair.
func (s *connectionStore) Delete(ctx context.Context, userID string, provider domain.ProviderID) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM connections WHERE user_id = ? AND provider = ?
	`, userID, string(provider))
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return nil
}

// ListByUser returns all connections for a user.
func (s *connectionStore) ListByUser(ctx context.Context, userID string) ([]domain.Connection, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, provider, connected, last_sync_at
		FROM connections
		WHERE user_id = ?
		ORDER BY provider
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var conns []domain.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		conns = append(conns, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connections: %w", err)
	}
	return conns, nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConnection(row scanner) (*domain.Connection, error) {
	var (
		conn     domain.Connection
		provider string
		lastSync sql.NullTime
	)
	if err := row.Scan(&conn.ID, &conn.UserID, &provider, &conn.Connected, &lastSync); err != nil {
		return nil, err
	}
	conn.Provider = domain.ProviderID(provider)
	if lastSync.Valid {
		conn.LastSyncAt = lastSync.Time.UTC()
	}
	return &conn, nil
}
