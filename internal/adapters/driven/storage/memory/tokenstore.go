// Package memory provides in-memory store implementations, used by default
// when no persistent storage is configured and throughout the tests.
package memory

import (
	"context"
	"sync"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokenStore is an in-memory implementation of driven.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[storeKey]domain.Token
}

type storeKey struct {
	userID   string
	provider domain.ProviderID
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[storeKey]domain.Token),
	}
}

// Get retrieves the token for a (user, provider) pair.
func (s *TokenStore) Get(_ context.Context, userID string, provider domain.ProviderID) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[storeKey{userID, provider}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

// Put stores or replaces the token for a (user, provider) pair.
func (s *TokenStore) Put(_ context.Context, userID string, provider domain.ProviderID, token domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[storeKey{userID, provider}] = token
	return nil
}

// Remove deletes the token for a (user, provider) pair.
func (s *TokenStore) Remove(_ context.Context, userID string, provider domain.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, storeKey{userID, provider})
	return nil
}
