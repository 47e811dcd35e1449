package domain

import "time"

// Token is the normalized OAuth token record. Once issued it is owned by
// the token store; connectors may use the token handed to them for a single
// call but are never the source of truth across requests.
type Token struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens. Empty when the
	// provider did not grant offline access.
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresAt is when the access token expires. The zero value means the
	// expiry is unknown, which the framework treats as already expired.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	// Scopes are the scopes actually granted, when the provider reports them.
	Scopes []string `json:"scopes,omitempty"`
}

// Expired reports whether the token must not be used for API calls.
// A token with no known expiry is expired, and the boundary is inclusive:
// a token expiring exactly now is expired.
func (t Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(t.ExpiresAt)
}

// Refreshable reports whether an expired token can be renewed without
// sending the user back through the authorization flow.
func (t Token) Refreshable() bool {
	return t.RefreshToken != ""
}

// Live reports whether the token can serve a request, possibly after a
// refresh. Status reporting uses this to reconcile "connected" with the
// actual token state.
func (t Token) Live(now time.Time) bool {
	return !t.Expired(now) || t.Refreshable()
}

// Connection records that a user has completed (or initiated) the OAuth
// flow for a provider. Distinct from Token: a connection may exist as
// intended before tokens arrive, and status reporting reconciles it with
// actual token presence.
type Connection struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id"`
	// UserID is the application user who owns the connection.
	UserID string `json:"user_id"`
	// Provider is the connected external system.
	Provider ProviderID `json:"provider"`
	// Connected is true once the OAuth callback stored a token.
	Connected bool `json:"connected"`
	// LastSyncAt is when data was last fetched through this connection.
	LastSyncAt time.Time `json:"last_sync_at,omitempty"`
}
