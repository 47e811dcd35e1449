package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Fetch: &mockFetchService{}}, "user-42")
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("requires fetch service", func(t *testing.T) {
		_, err := NewServer(&Ports{}, "user-42")
		require.ErrorIs(t, err, ErrMissingFetchService)
	})

	t.Run("requires user id", func(t *testing.T) {
		_, err := NewServer(&Ports{Fetch: &mockFetchService{}}, "")
		require.ErrorIs(t, err, ErrMissingUserID)
	})
}
