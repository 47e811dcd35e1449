package memory

import (
	"context"
	"sync"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

// Ensure ConnectionStore implements the interface.
var _ driven.ConnectionStore = (*ConnectionStore)(nil)

// ConnectionStore is an in-memory implementation of driven.ConnectionStore.
type ConnectionStore struct {
	mu          sync.RWMutex
	connections map[storeKey]domain.Connection
}

// NewConnectionStore creates a new in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		connections: make(map[storeKey]domain.Connection),
	}
}

// Save stores or updates a connection, keyed by (UserID, Provider).
func (s *ConnectionStore) Save(_ context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[storeKey{conn.UserID, conn.Provider}] = conn
	return nil
}

// Get retrieves the connection for a (user, provider) pair.
func (s *ConnectionStore) Get(_ context.Context, userID string, provider domain.ProviderID) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.connections[storeKey{userID, provider}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &conn, nil
}

// Delete removes the connection for a (user, provider) pair.
func (s *ConnectionStore) Delete(_ context.Context, userID string, provider domain.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, storeKey{userID, provider})
	return nil
}

// ListByUser returns all connections for a user, ordered by provider
// display order.
func (s *ConnectionStore) ListByUser(_ context.Context, userID string) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Connection
	for _, provider := range domain.Providers {
		if conn, ok := s.connections[storeKey{userID, provider}]; ok {
			result = append(result, conn)
		}
	}
	return result, nil
}
