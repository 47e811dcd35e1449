package driving

import (
	"context"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// ConnectionService manages the OAuth lifecycle of provider connections.
type ConnectionService interface {
	// AuthURL returns the provider's authorization URL for the user. The
	// user id is carried in the state parameter and echoed back by the
	// provider on callback; it is the only channel associating a callback
	// with the initiating user.
	AuthURL(ctx context.Context, userID string, provider domain.ProviderID) (string, error)

	// CompleteAuthorization exchanges the callback code for a token,
	// persists it keyed by the user id carried in state, and marks the
	// connection as connected.
	CompleteAuthorization(ctx context.Context, provider domain.ProviderID, code, state string) error

	// Status reports, per provider, whether a credential is configured and
	// whether the user holds a live token.
	Status(ctx context.Context, userID string) ([]domain.ProviderStatus, error)

	// TestConnection makes a lightweight authenticated call for the user's
	// token. False on any failure; never errors.
	TestConnection(ctx context.Context, userID string, provider domain.ProviderID) bool

	// Disconnect revokes the provider-side grant best-effort and always
	// removes the stored token. Idempotent.
	Disconnect(ctx context.Context, userID string, provider domain.ProviderID) error
}
