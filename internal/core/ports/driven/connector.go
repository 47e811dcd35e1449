package driven

import (
	"context"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// Connector is the capability-polymorphic contract every provider variant
// implements. The lifecycle operations (AuthURL through TestConnection) are
// mandatory; the fetch operations are optional and guarded twice: the
// Capabilities bitfield is checked by the dispatcher before invocation, and
// unimplemented operations fail with domain.ErrUnsupportedOperation so
// callers can branch on support rather than parse error text.
//
// Connector instances are stateless request executors: tokens are passed in
// per call and the token store remains the single source of truth. They are
// safe for concurrent use.
type Connector interface {
	// Provider returns the variant's identifier.
	Provider() domain.ProviderID

	// Capabilities declares the supported fetch operations.
	Capabilities() domain.Capability

	// AuthURL builds the provider's authorization endpoint URL with
	// response_type=code, the configured client id, redirect URI, the
	// space-joined scopes, and provider-specific extras. state is
	// forwarded verbatim and treated as an opaque value.
	AuthURL(state string) string

	// ExchangeCode performs the authorization-code grant. On success the
	// token's ExpiresAt is computed from the provider's expires_in, or
	// from the provider's documented fallback TTL when absent. Fails with
	// domain.ErrExchangeFailed on rejection and
	// domain.ErrUpstreamUnavailable on transport faults.
	ExchangeCode(ctx context.Context, code string) (*domain.Token, error)

	// Refresh performs the refresh-token grant, preserving the incoming
	// refresh token when the provider does not reissue one. Fails with
	// domain.ErrRefreshFailed on rejection (terminal for the token) and
	// domain.ErrUpstreamUnavailable on transport faults (retryable).
	Refresh(ctx context.Context, refreshToken string) (*domain.Token, error)

	// Revoke attempts server-side revocation. Providers without a revoke
	// endpoint return nil; callers clear local state regardless of the
	// network outcome.
	Revoke(ctx context.Context, token *domain.Token) error

	// TestConnection makes a lightweight authenticated call. Any non-2xx
	// response or network fault yields false; it never returns an error.
	TestConnection(ctx context.Context, token *domain.Token) bool

	// Fetch operations. Each tolerates partial provider responses and maps
	// provider status/label fields into the normalized vocabulary with an
	// explicit total mapping. Per-record failures are reported via
	// domain.PartialFetchError alongside the successful subset.
	FetchAccounts(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Account, error)
	FetchContacts(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Contact, error)
	FetchActivities(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Activity, error)
	FetchEmails(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Email, error)
	FetchCalendarEvents(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.CalendarEvent, error)
}
