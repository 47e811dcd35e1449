package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/connect/internal/core/domain"
)

func TestConnectionStore(t *testing.T) {
	ctx := context.Background()
	store := NewConnectionStore()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "user-1", domain.ProviderGoogle)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save and get", func(t *testing.T) {
		conn := domain.Connection{ID: "c1", UserID: "user-1", Provider: domain.ProviderGoogle, Connected: true}
		require.NoError(t, store.Save(ctx, conn))

		got, err := store.Get(ctx, "user-1", domain.ProviderGoogle)
		require.NoError(t, err)
		assert.Equal(t, "c1", got.ID)
		assert.True(t, got.Connected)
	})

	t.Run("save updates in place", func(t *testing.T) {
		conn := domain.Connection{ID: "c1", UserID: "user-1", Provider: domain.ProviderGoogle, Connected: false}
		require.NoError(t, store.Save(ctx, conn))

		got, err := store.Get(ctx, "user-1", domain.ProviderGoogle)
		require.NoError(t, err)
		assert.False(t, got.Connected)
	})

	t.Run("list by user follows provider order", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.Connection{ID: "c2", UserID: "user-1", Provider: domain.ProviderHubSpot}))
		require.NoError(t, store.Save(ctx, domain.Connection{ID: "c3", UserID: "user-1", Provider: domain.ProviderSalesforce}))
		require.NoError(t, store.Save(ctx, domain.Connection{ID: "c4", UserID: "user-2", Provider: domain.ProviderGoogle}))

		conns, err := store.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, conns, 3)
		assert.Equal(t, domain.ProviderSalesforce, conns[0].Provider)
		assert.Equal(t, domain.ProviderGoogle, conns[1].Provider)
		assert.Equal(t, domain.ProviderHubSpot, conns[2].Provider)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "user-1", domain.ProviderGoogle))
		_, err := store.Get(ctx, "user-1", domain.ProviderGoogle)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, "user-1", domain.ProviderGoogle))
	})
}
