package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/connect/internal/core/domain"
)

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	token := domain.Token{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "user-1", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "user-1", domain.ProviderSalesforce, token))

		got, err := store.Get(ctx, "user-1", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.Equal(t, "at-1", got.AccessToken)
	})

	t.Run("keys are per provider", func(t *testing.T) {
		_, err := store.Get(ctx, "user-1", domain.ProviderGoogle)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("keys are per user", func(t *testing.T) {
		_, err := store.Get(ctx, "user-2", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("put replaces", func(t *testing.T) {
		replacement := token
		replacement.AccessToken = "at-2"
		require.NoError(t, store.Put(ctx, "user-1", domain.ProviderSalesforce, replacement))

		got, err := store.Get(ctx, "user-1", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.Equal(t, "at-2", got.AccessToken)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, store.Remove(ctx, "user-1", domain.ProviderSalesforce))
		_, err := store.Get(ctx, "user-1", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("remove absent is not an error", func(t *testing.T) {
		assert.NoError(t, store.Remove(ctx, "user-1", domain.ProviderSalesforce))
	})
}

func TestTokenStoreReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore()

	require.NoError(t, store.Put(ctx, "user-1", domain.ProviderHubSpot, domain.Token{AccessToken: "at-1"}))

	got, err := store.Get(ctx, "user-1", domain.ProviderHubSpot)
	require.NoError(t, err)
	got.AccessToken = "mutated"

	again, err := store.Get(ctx, "user-1", domain.ProviderHubSpot)
	require.NoError(t, err)
	assert.Equal(t, "at-1", again.AccessToken)
}
