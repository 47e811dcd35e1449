package mcp

import (
	"context"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driving"
)

// mockFetchService is a scriptable FetchService for tests.
type mockFetchService struct {
	accounts   []domain.Account
	contacts   []domain.Contact
	activities []domain.Activity
	emails     []domain.Email
	events     []domain.CalendarEvent
	err        error

	supports map[domain.ProviderID]domain.Capability

	lastUserID   string
	lastProvider domain.ProviderID
	lastOpts     domain.FetchOptions
}

var _ driving.FetchService = (*mockFetchService)(nil)

func (m *mockFetchService) record(userID string, provider domain.ProviderID, opts domain.FetchOptions) {
	m.lastUserID = userID
	m.lastProvider = provider
	m.lastOpts = opts
}

func (m *mockFetchService) Supports(provider domain.ProviderID, want domain.Capability) bool {
	return m.supports[provider]&want == want
}

func (m *mockFetchService) Accounts(_ context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Account, error) {
	m.record(userID, provider, opts)
	return m.accounts, m.err
}

func (m *mockFetchService) Contacts(_ context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Contact, error) {
	m.record(userID, provider, opts)
	return m.contacts, m.err
}

func (m *mockFetchService) Activities(_ context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Activity, error) {
	m.record(userID, provider, opts)
	return m.activities, m.err
}

func (m *mockFetchService) Emails(_ context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Email, error) {
	m.record(userID, provider, opts)
	return m.emails, m.err
}

func (m *mockFetchService) CalendarEvents(_ context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.CalendarEvent, error) {
	m.record(userID, provider, opts)
	return m.events, m.err
}

// mockConnectionService is a scriptable ConnectionService for tests.
type mockConnectionService struct {
	statuses []domain.ProviderStatus
	err      error
}

var _ driving.ConnectionService = (*mockConnectionService)(nil)

func (m *mockConnectionService) AuthURL(context.Context, string, domain.ProviderID) (string, error) {
	return "", nil
}

func (m *mockConnectionService) CompleteAuthorization(context.Context, domain.ProviderID, string, string) error {
	return nil
}

func (m *mockConnectionService) Status(context.Context, string) ([]domain.ProviderStatus, error) {
	return m.statuses, m.err
}

func (m *mockConnectionService) TestConnection(context.Context, string, domain.ProviderID) bool {
	return false
}

func (m *mockConnectionService) Disconnect(context.Context, string, domain.ProviderID) error {
	return nil
}
