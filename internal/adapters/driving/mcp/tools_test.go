package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/connect/internal/core/domain"
)

func newTestMCPServer(t *testing.T, fetch *mockFetchService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Fetch: fetch}, "user-42")
	require.NoError(t, err)
	return server
}

func TestServer_handleFetchAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("returns accounts", func(t *testing.T) {
		fetch := &mockFetchService{
			accounts: []domain.Account{
				{ID: "001", Name: "Acme", Company: "Acme"},
				{ID: "002", Name: "Globex", Company: "Globex"},
			},
		}
		server := newTestMCPServer(t, fetch)

		_, output, err := server.handleFetchAccounts(ctx, nil, FetchInput{Provider: "salesforce"})
		require.NoError(t, err)

		assert.Equal(t, 2, output.Count)
		assert.Zero(t, output.Failed)
		assert.Equal(t, "Acme", output.Accounts[0].Name)
		assert.Equal(t, "user-42", fetch.lastUserID)
		assert.Equal(t, domain.ProviderSalesforce, fetch.lastProvider)
	})

	t.Run("passes fetch options through", func(t *testing.T) {
		fetch := &mockFetchService{}
		server := newTestMCPServer(t, fetch)

		input := FetchInput{
			Provider: "hubspot",
			Query:    "acme",
			Since:    "2026-01-01T00:00:00Z",
			Until:    "2026-02-01T00:00:00Z",
			Limit:    25,
		}
		_, _, err := server.handleFetchAccounts(ctx, nil, input)
		require.NoError(t, err)

		assert.Equal(t, "acme", fetch.lastOpts.Query)
		assert.Equal(t, 25, fetch.lastOpts.Limit)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), fetch.lastOpts.Since)
		assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), fetch.lastOpts.Until)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		server := newTestMCPServer(t, &mockFetchService{})

		_, _, err := server.handleFetchAccounts(ctx, nil, FetchInput{Provider: "smb"})
		require.ErrorIs(t, err, domain.ErrUnknownProvider)
	})

	t.Run("rejects malformed since", func(t *testing.T) {
		server := newTestMCPServer(t, &mockFetchService{})

		_, _, err := server.handleFetchAccounts(ctx, nil, FetchInput{Provider: "salesforce", Since: "yesterday"})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("partial failure keeps the subset", func(t *testing.T) {
		fetch := &mockFetchService{
			accounts: []domain.Account{{ID: "001", Name: "Acme"}},
			err:      &domain.PartialFetchError{Failed: 3},
		}
		server := newTestMCPServer(t, fetch)

		_, output, err := server.handleFetchAccounts(ctx, nil, FetchInput{Provider: "salesforce"})
		require.NoError(t, err)

		assert.Equal(t, 1, output.Count)
		assert.Equal(t, 3, output.Failed)
	})

	t.Run("propagates fetch failure", func(t *testing.T) {
		fetch := &mockFetchService{err: domain.ErrReauthorizationRequired}
		server := newTestMCPServer(t, fetch)

		_, _, err := server.handleFetchAccounts(ctx, nil, FetchInput{Provider: "salesforce"})
		require.ErrorIs(t, err, domain.ErrReauthorizationRequired)
	})
}

func TestServer_handleFetchContacts(t *testing.T) {
	fetch := &mockFetchService{
		contacts: []domain.Contact{{ID: "c1", Name: "Jordan Li", Email: "jordan@acme.example"}},
	}
	server := newTestMCPServer(t, fetch)

	input := FetchInput{Provider: "hubspot", ParentID: "901"}
	_, output, err := server.handleFetchContacts(context.Background(), nil, input)
	require.NoError(t, err)

	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "Jordan Li", output.Contacts[0].Name)
	assert.Equal(t, "901", fetch.lastOpts.ParentID)
}

func TestServer_handleFetchActivities(t *testing.T) {
	fetch := &mockFetchService{
		activities: []domain.Activity{{ID: "a1", Kind: domain.ActivityCall, Subject: "Renewal call"}},
	}
	server := newTestMCPServer(t, fetch)

	_, output, err := server.handleFetchActivities(context.Background(), nil, FetchInput{Provider: "salesforce"})
	require.NoError(t, err)

	assert.Equal(t, 1, output.Count)
	assert.Equal(t, domain.ActivityCall, output.Activities[0].Kind)
}

func TestServer_handleFetchEmails(t *testing.T) {
	fetch := &mockFetchService{
		emails: []domain.Email{{ID: "m1", Subject: "Policy renewal", IsRead: true}},
	}
	server := newTestMCPServer(t, fetch)

	_, output, err := server.handleFetchEmails(context.Background(), nil, FetchInput{Provider: "google"})
	require.NoError(t, err)

	assert.Equal(t, 1, output.Count)
	assert.True(t, output.Emails[0].IsRead)
	assert.Equal(t, domain.ProviderGoogle, fetch.lastProvider)
}

func TestServer_handleFetchCalendarEvents(t *testing.T) {
	fetch := &mockFetchService{
		events: []domain.CalendarEvent{{ID: "e1", Title: "Client review"}},
	}
	server := newTestMCPServer(t, fetch)

	_, output, err := server.handleFetchCalendarEvents(context.Background(), nil, FetchInput{Provider: "outlook"})
	require.NoError(t, err)

	assert.Equal(t, 1, output.Count)
	assert.Equal(t, "Client review", output.Events[0].Title)
}
