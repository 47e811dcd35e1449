package driving

import (
	"context"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// FetchService exposes the normalized data-fetch operations. Before every
// call the implementation checks the provider's declared capabilities,
// verifies token expiry exactly once, and refreshes if needed; callers
// never see a fetch performed with a known-expired token.
type FetchService interface {
	// Supports reports whether the provider declares the capability,
	// without touching the network.
	Supports(provider domain.ProviderID, cap domain.Capability) bool

	Accounts(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Account, error)
	Contacts(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Contact, error)
	Activities(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Activity, error)
	Emails(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Email, error)
	CalendarEvents(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.CalendarEvent, error)
}
