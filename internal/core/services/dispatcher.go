package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
	"github.com/brokerdesk/connect/internal/core/ports/driving"
	"github.com/brokerdesk/connect/internal/logger"
)

// Ensure Dispatcher implements the driving interfaces.
var (
	_ driving.ConnectionService = (*Dispatcher)(nil)
	_ driving.FetchService      = (*Dispatcher)(nil)
)

// Dispatcher routes every operation to the right connector and owns the
// per-(user, provider) token lifecycle: expiry is checked exactly once at
// the start of each fetch, refreshes are deduplicated so concurrent callers
// share one grant request, and terminal refresh failures evict the token so
// the caller is told to re-authorize instead of retrying forever.
type Dispatcher struct {
	source ConnectorSource
	tokens driven.TokenStore
	conns  driven.ConnectionStore

	refreshGroup singleflight.Group

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewDispatcher creates a dispatcher over the given connector source and
// stores.
func NewDispatcher(source ConnectorSource, tokens driven.TokenStore, conns driven.ConnectionStore) *Dispatcher {
	return &Dispatcher{
		source: source,
		tokens: tokens,
		conns:  conns,
		now:    time.Now,
	}
}

// AuthURL returns the provider's authorization URL for the user. The user
// id rides in the state parameter; the connector treats it as opaque and
// the provider echoes it back on callback.
func (d *Dispatcher) AuthURL(_ context.Context, userID string, provider domain.ProviderID) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	connector, err := d.source.Connector(provider)
	if err != nil {
		return "", err
	}
	return connector.AuthURL(userID), nil
}

// CompleteAuthorization exchanges the callback code and stores the
// resulting token keyed by the user id carried in state.
func (d *Dispatcher) CompleteAuthorization(ctx context.Context, provider domain.ProviderID, code, state string) error {
	if code == "" {
		return fmt.Errorf("%w: authorization code is required", domain.ErrInvalidInput)
	}
	userID := state
	if userID == "" {
		return fmt.Errorf("%w: state is required", domain.ErrInvalidInput)
	}

	connector, err := d.source.Connector(provider)
	if err != nil {
		return err
	}

	token, err := connector.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}

	if err := d.tokens.Put(ctx, userID, provider, *token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	conn, err := d.conns.Get(ctx, userID, provider)
	if err != nil {
		conn = &domain.Connection{
			ID:       uuid.NewString(),
			UserID:   userID,
			Provider: provider,
		}
	}
	conn.Connected = true
	if err := d.conns.Save(ctx, *conn); err != nil {
		return fmt.Errorf("store connection: %w", err)
	}

	logger.Info("connected %s for user %s", provider, userID)
	return nil
}

// Status reports every known provider, configured or not, in display order.
func (d *Dispatcher) Status(ctx context.Context, userID string) ([]domain.ProviderStatus, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	statuses := make([]domain.ProviderStatus, 0, len(domain.Providers))
	for _, provider := range domain.Providers {
		status := domain.ProviderStatus{
			Provider:   provider,
			Configured: d.source.Configured(provider),
		}
		if token, err := d.tokens.Get(ctx, userID, provider); err == nil {
			status.Connected = token.Live(d.now())
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// TestConnection verifies the user's token against the provider with a
// lightweight call, refreshing first if needed.
func (d *Dispatcher) TestConnection(ctx context.Context, userID string, provider domain.ProviderID) bool {
	connector, err := d.source.Connector(provider)
	if err != nil {
		return false
	}
	token, err := d.ensureToken(ctx, userID, provider, connector)
	if err != nil {
		return false
	}
	return connector.TestConnection(ctx, token)
}

// Disconnect removes the stored token and connection. Provider-side
// revocation is attempted first but its failure never blocks the local
// cleanup; disconnecting an unconnected provider is a no-op.
func (d *Dispatcher) Disconnect(ctx context.Context, userID string, provider domain.ProviderID) error {
	connector, err := d.source.Connector(provider)
	if err != nil {
		return err
	}

	if token, err := d.tokens.Get(ctx, userID, provider); err == nil {
		if err := connector.Revoke(ctx, token); err != nil {
			logger.Warn("revoke failed for %s, clearing local state anyway: %v", provider, err)
		}
	}

	if err := d.tokens.Remove(ctx, userID, provider); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if err := d.conns.Delete(ctx, userID, provider); err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}
	return nil
}

// Supports reports whether the provider declares the capability. False for
// unconfigured or unknown providers.
func (d *Dispatcher) Supports(provider domain.ProviderID, cap domain.Capability) bool {
	connector, err := d.source.Connector(provider)
	if err != nil {
		return false
	}
	return connector.Capabilities().Supports(cap)
}

// Accounts fetches normalized accounts.
func (d *Dispatcher) Accounts(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Account, error) {
	connector, token, err := d.prepare(ctx, userID, provider, domain.CapAccounts)
	if err != nil {
		return nil, err
	}
	accounts, err := connector.FetchAccounts(ctx, token, opts)
	d.afterFetch(ctx, userID, provider, err)
	return accounts, err
}

// Contacts fetches normalized contacts.
func (d *Dispatcher) Contacts(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Contact, error) {
	connector, token, err := d.prepare(ctx, userID, provider, domain.CapContacts)
	if err != nil {
		return nil, err
	}
	contacts, err := connector.FetchContacts(ctx, token, opts)
	d.afterFetch(ctx, userID, provider, err)
	return contacts, err
}

// Activities fetches normalized activities.
func (d *Dispatcher) Activities(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Activity, error) {
	connector, token, err := d.prepare(ctx, userID, provider, domain.CapActivities)
	if err != nil {
		return nil, err
	}
	activities, err := connector.FetchActivities(ctx, token, opts)
	d.afterFetch(ctx, userID, provider, err)
	return activities, err
}

// Emails fetches normalized mail messages.
func (d *Dispatcher) Emails(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.Email, error) {
	connector, token, err := d.prepare(ctx, userID, provider, domain.CapEmails)
	if err != nil {
		return nil, err
	}
	emails, err := connector.FetchEmails(ctx, token, opts)
	d.afterFetch(ctx, userID, provider, err)
	return emails, err
}

// CalendarEvents fetches normalized calendar events.
func (d *Dispatcher) CalendarEvents(ctx context.Context, userID string, provider domain.ProviderID, opts domain.FetchOptions) ([]domain.CalendarEvent, error) {
	connector, token, err := d.prepare(ctx, userID, provider, domain.CapCalendar)
	if err != nil {
		return nil, err
	}
	events, err := connector.FetchCalendarEvents(ctx, token, opts)
	d.afterFetch(ctx, userID, provider, err)
	return events, err
}

// prepare resolves the connector, enforces the capability gate, and hands
// back a token guaranteed fresh at this instant.
func (d *Dispatcher) prepare(ctx context.Context, userID string, provider domain.ProviderID, cap domain.Capability) (driven.Connector, *domain.Token, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	connector, err := d.source.Connector(provider)
	if err != nil {
		return nil, nil, err
	}
	if !connector.Capabilities().Supports(cap) {
		return nil, nil, fmt.Errorf("%s does not support %s: %w", provider, cap, domain.ErrUnsupportedOperation)
	}

	token, err := d.ensureToken(ctx, userID, provider, connector)
	if err != nil {
		return nil, nil, err
	}
	return connector, token, nil
}

// ensureToken returns a usable access token, refreshing an expired one.
// Concurrent callers for the same (user, provider) share a single refresh
// request; each flight re-reads the store first so late arrivals reuse the
// token the winner already stored.
func (d *Dispatcher) ensureToken(ctx context.Context, userID string, provider domain.ProviderID, connector driven.Connector) (*domain.Token, error) {
	token, err := d.tokens.Get(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s is not connected: %w", provider, domain.ErrReauthorizationRequired)
		}
		return nil, fmt.Errorf("load token: %w", err)
	}

	if !token.Expired(d.now()) {
		return token, nil
	}

	if !token.Refreshable() {
		d.evictToken(ctx, userID, provider)
		return nil, fmt.Errorf("%s token expired with no refresh token: %w", provider, domain.ErrReauthorizationRequired)
	}

	key := userID + "|" + string(provider)
	result, err, _ := d.refreshGroup.Do(key, func() (any, error) {
		return d.refreshToken(ctx, userID, provider, connector)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Token), nil
}

// refreshToken runs inside the singleflight group.
func (d *Dispatcher) refreshToken(ctx context.Context, userID string, provider domain.ProviderID, connector driven.Connector) (*domain.Token, error) {
	// Another caller may have completed the refresh while this one waited
	// on the flight.
	current, err := d.tokens.Get(ctx, userID, provider)
	if err != nil {
		return nil, fmt.Errorf("%s is not connected: %w", provider, domain.ErrReauthorizationRequired)
	}
	if !current.Expired(d.now()) {
		return current, nil
	}

	logger.Debug("refreshing %s token for user %s", provider, userID)
	refreshed, err := connector.Refresh(ctx, current.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			// Transient: the stored token stays; the next call retries.
			return nil, err
		}
		// The provider rejected the grant. The token is dead.
		d.evictToken(ctx, userID, provider)
		return nil, fmt.Errorf("%s: %w: %w", provider, domain.ErrReauthorizationRequired, err)
	}

	if err := d.tokens.Put(ctx, userID, provider, *refreshed); err != nil {
		return nil, fmt.Errorf("store refreshed token: %w", err)
	}
	return refreshed, nil
}

// evictToken drops the token and flips the connection to disconnected.
func (d *Dispatcher) evictToken(ctx context.Context, userID string, provider domain.ProviderID) {
	if err := d.tokens.Remove(ctx, userID, provider); err != nil {
		logger.Warn("evict token for %s: %v", provider, err)
	}
	if conn, err := d.conns.Get(ctx, userID, provider); err == nil {
		conn.Connected = false
		if err := d.conns.Save(ctx, *conn); err != nil {
			logger.Warn("mark %s disconnected: %v", provider, err)
		}
	}
}

// afterFetch records the sync time on success. Partial results still count
// as a sync.
func (d *Dispatcher) afterFetch(ctx context.Context, userID string, provider domain.ProviderID, fetchErr error) {
	if fetchErr != nil {
		if _, ok := domain.AsPartial(fetchErr); !ok {
			return
		}
	}
	conn, err := d.conns.Get(ctx, userID, provider)
	if err != nil {
		return
	}
	conn.LastSyncAt = d.now()
	if err := d.conns.Save(ctx, *conn); err != nil {
		logger.Warn("record sync time for %s: %v", provider, err)
	}
}
