package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerdesk/connect/internal/adapters/driven/storage/memory"
	"github.com/brokerdesk/connect/internal/connectors"
	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

// fakeConnector is a scriptable connector for dispatcher tests.
type fakeConnector struct {
	connectors.UnsupportedFetches

	provider     domain.ProviderID
	capabilities domain.Capability

	exchangeToken *domain.Token
	exchangeErr   error

	refreshToken *domain.Token
	refreshErr   error
	refreshDelay time.Duration
	refreshCalls atomic.Int32

	revokeErr   error
	revokeCalls atomic.Int32

	accounts  []domain.Account
	fetchErr  error
	testAlive bool
}

var _ driven.Connector = (*fakeConnector)(nil)

func (f *fakeConnector) Provider() domain.ProviderID        { return f.provider }
func (f *fakeConnector) Capabilities() domain.Capability    { return f.capabilities }
func (f *fakeConnector) AuthURL(state string) string        { return "https://auth.example/authorize?state=" + state }
func (f *fakeConnector) Revoke(context.Context, *domain.Token) error {
	f.revokeCalls.Add(1)
	return f.revokeErr
}
func (f *fakeConnector) TestConnection(context.Context, *domain.Token) bool { return f.testAlive }

func (f *fakeConnector) ExchangeCode(context.Context, string) (*domain.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeToken, nil
}

func (f *fakeConnector) Refresh(context.Context, string) (*domain.Token, error) {
	f.refreshCalls.Add(1)
	if f.refreshDelay > 0 {
		time.Sleep(f.refreshDelay)
	}
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshToken, nil
}

func (f *fakeConnector) FetchAccounts(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Account, error) {
	if f.fetchErr != nil {
		return f.accounts, f.fetchErr
	}
	return f.accounts, nil
}

type fixture struct {
	dispatcher *Dispatcher
	registry   *Registry
	tokens     *memory.TokenStore
	conns      *memory.ConnectionStore
	connector  *fakeConnector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	connector := &fakeConnector{
		provider:     domain.ProviderSalesforce,
		capabilities: domain.CapAccounts | domain.CapContacts | domain.CapActivities,
		testAlive:    true,
	}

	registry := NewRegistry(RegistryConfig{})
	registry.Register(connector)

	tokens := memory.NewTokenStore()
	conns := memory.NewConnectionStore()

	return &fixture{
		dispatcher: NewDispatcher(registry, tokens, conns),
		registry:   registry,
		tokens:     tokens,
		conns:      conns,
		connector:  connector,
	}
}

func liveToken() domain.Token {
	return domain.Token{
		AccessToken:  "at-live",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func expiredToken() domain.Token {
	return domain.Token{
		AccessToken:  "at-stale",
		RefreshToken: "rt-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
}

func TestAuthURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("state carries the user id", func(t *testing.T) {
		url, err := f.dispatcher.AuthURL(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.Contains(t, url, "state=user-42")
	})

	t.Run("empty user id rejected", func(t *testing.T) {
		_, err := f.dispatcher.AuthURL(ctx, "", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		_, err := f.dispatcher.AuthURL(ctx, "user-42", domain.ProviderGoogle)
		assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := f.dispatcher.AuthURL(ctx, "user-42", domain.ProviderID("smb"))
		assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	})
}

func TestCompleteAuthorization(t *testing.T) {
	ctx := context.Background()

	t.Run("stores token and connection", func(t *testing.T) {
		f := newFixture(t)
		issued := liveToken()
		f.connector.exchangeToken = &issued

		err := f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "code-1", "user-42")
		require.NoError(t, err)

		stored, err := f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.Equal(t, "at-live", stored.AccessToken)

		conn, err := f.conns.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.True(t, conn.Connected)
		assert.NotEmpty(t, conn.ID)
	})

	t.Run("exchange failure stores nothing", func(t *testing.T) {
		f := newFixture(t)
		f.connector.exchangeErr = fmt.Errorf("boom: %w", domain.ErrExchangeFailed)

		err := f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "code-1", "user-42")
		require.ErrorIs(t, err, domain.ErrExchangeFailed)

		_, err = f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing code rejected", func(t *testing.T) {
		f := newFixture(t)
		err := f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "", "user-42")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing state rejected", func(t *testing.T) {
		f := newFixture(t)
		err := f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "code-1", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("reconnect keeps the connection id", func(t *testing.T) {
		f := newFixture(t)
		issued := liveToken()
		f.connector.exchangeToken = &issued

		require.NoError(t, f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "code-1", "user-42"))
		first, err := f.conns.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)

		require.NoError(t, f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "code-2", "user-42"))
		second, err := f.conns.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))

	statuses, err := f.dispatcher.Status(ctx, "user-42")
	require.NoError(t, err)
	require.Len(t, statuses, len(domain.Providers))

	byProvider := make(map[domain.ProviderID]domain.ProviderStatus)
	for _, s := range statuses {
		byProvider[s.Provider] = s
	}

	assert.True(t, byProvider[domain.ProviderSalesforce].Configured)
	assert.True(t, byProvider[domain.ProviderSalesforce].Connected)
	assert.False(t, byProvider[domain.ProviderGoogle].Configured)
	assert.False(t, byProvider[domain.ProviderGoogle].Connected)
}

func TestStatusExpiredButRefreshable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Expired access token with a refresh token still counts as connected.
	require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, expiredToken()))

	statuses, err := f.dispatcher.Status(ctx, "user-42")
	require.NoError(t, err)
	for _, s := range statuses {
		if s.Provider == domain.ProviderSalesforce {
			assert.True(t, s.Connected)
		}
	}
}

func TestFetchAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("live token used directly", func(t *testing.T) {
		f := newFixture(t)
		f.connector.accounts = []domain.Account{{ID: "001", Name: "Acme"}}
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))

		accounts, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, int32(0), f.connector.refreshCalls.Load())
	})

	t.Run("no token means reauthorize", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		assert.ErrorIs(t, err, domain.ErrReauthorizationRequired)
	})

	t.Run("capability gate blocks before network", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))

		_, err := f.dispatcher.Emails(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	})

	t.Run("partial failure keeps the successful subset", func(t *testing.T) {
		f := newFixture(t)
		f.connector.accounts = []domain.Account{{ID: "001", Name: "Acme"}}
		f.connector.fetchErr = &domain.PartialFetchError{Failed: 1, Errs: []error{errors.New("record 002: bad payload")}}
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))

		accounts, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		require.Error(t, err)
		_, ok := domain.AsPartial(err)
		assert.True(t, ok)
		assert.Len(t, accounts, 1)
	})

	t.Run("successful fetch records sync time", func(t *testing.T) {
		f := newFixture(t)
		issued := liveToken()
		f.connector.exchangeToken = &issued
		require.NoError(t, f.dispatcher.CompleteAuthorization(ctx, domain.ProviderSalesforce, "code-1", "user-42"))

		_, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		require.NoError(t, err)

		conn, err := f.conns.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.False(t, conn.LastSyncAt.IsZero())
	})
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	renewed := liveToken()
	renewed.AccessToken = "at-renewed"
	f.connector.refreshToken = &renewed
	f.connector.accounts = []domain.Account{{ID: "001"}}

	require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, expiredToken()))

	_, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.connector.refreshCalls.Load())

	stored, err := f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
	require.NoError(t, err)
	assert.Equal(t, "at-renewed", stored.AccessToken)
}

func TestConcurrentFetchesShareOneRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	renewed := liveToken()
	renewed.AccessToken = "at-renewed"
	f.connector.refreshToken = &renewed
	f.connector.refreshDelay = 50 * time.Millisecond
	f.connector.accounts = []domain.Account{{ID: "001"}}

	require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, expiredToken()))

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int32(1), f.connector.refreshCalls.Load())
}

func TestRefreshFailureModes(t *testing.T) {
	ctx := context.Background()

	t.Run("grant rejection evicts the token", func(t *testing.T) {
		f := newFixture(t)
		f.connector.refreshErr = fmt.Errorf("boom: %w", domain.ErrRefreshFailed)

		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, expiredToken()))
		require.NoError(t, f.conns.Save(ctx, domain.Connection{ID: "c1", UserID: "user-42", Provider: domain.ProviderSalesforce, Connected: true}))

		_, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		require.ErrorIs(t, err, domain.ErrReauthorizationRequired)

		_, err = f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		conn, err := f.conns.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.False(t, conn.Connected)
	})

	t.Run("transient failure keeps the token", func(t *testing.T) {
		f := newFixture(t)
		f.connector.refreshErr = fmt.Errorf("boom: %w", domain.ErrUpstreamUnavailable)

		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, expiredToken()))

		_, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.NotErrorIs(t, err, domain.ErrReauthorizationRequired)

		stored, err := f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
		require.NoError(t, err)
		assert.Equal(t, "rt-1", stored.RefreshToken)
	})

	t.Run("expired with no refresh token requires reauthorization", func(t *testing.T) {
		f := newFixture(t)
		token := expiredToken()
		token.RefreshToken = ""
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, token))

		_, err := f.dispatcher.Accounts(ctx, "user-42", domain.ProviderSalesforce, domain.FetchOptions{})
		require.ErrorIs(t, err, domain.ErrReauthorizationRequired)
		assert.Equal(t, int32(0), f.connector.refreshCalls.Load())
	})
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes and clears", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))
		require.NoError(t, f.conns.Save(ctx, domain.Connection{ID: "c1", UserID: "user-42", Provider: domain.ProviderSalesforce, Connected: true}))

		require.NoError(t, f.dispatcher.Disconnect(ctx, "user-42", domain.ProviderSalesforce))

		assert.Equal(t, int32(1), f.connector.revokeCalls.Load())
		_, err := f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = f.conns.Get(ctx, "user-42", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("revoke failure still clears local state", func(t *testing.T) {
		f := newFixture(t)
		f.connector.revokeErr = errors.New("revoke endpoint returned 500")
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))

		require.NoError(t, f.dispatcher.Disconnect(ctx, "user-42", domain.ProviderSalesforce))
		_, err := f.tokens.Get(ctx, "user-42", domain.ProviderSalesforce)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("idempotent without a token", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.dispatcher.Disconnect(ctx, "user-42", domain.ProviderSalesforce))
		assert.Equal(t, int32(0), f.connector.revokeCalls.Load())
	})
}

func TestSupports(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.dispatcher.Supports(domain.ProviderSalesforce, domain.CapAccounts))
	assert.False(t, f.dispatcher.Supports(domain.ProviderSalesforce, domain.CapEmails))
	assert.False(t, f.dispatcher.Supports(domain.ProviderGoogle, domain.CapEmails))
}

func TestTestConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("no token", func(t *testing.T) {
		assert.False(t, f.dispatcher.TestConnection(ctx, "user-42", domain.ProviderSalesforce))
	})

	t.Run("live token", func(t *testing.T) {
		require.NoError(t, f.tokens.Put(ctx, "user-42", domain.ProviderSalesforce, liveToken()))
		assert.True(t, f.dispatcher.TestConnection(ctx, "user-42", domain.ProviderSalesforce))
	})

	t.Run("provider says dead", func(t *testing.T) {
		f.connector.testAlive = false
		assert.False(t, f.dispatcher.TestConnection(ctx, "user-42", domain.ProviderSalesforce))
	})
}
