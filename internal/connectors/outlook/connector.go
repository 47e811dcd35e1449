// Package outlook implements the Microsoft 365 connector: Outlook mail and
// calendar through the Microsoft Graph REST API. Graph has no official Go
// client worth carrying, so requests go through the shared connector client.
package outlook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	drivenoauth "github.com/brokerdesk/connect/internal/adapters/driven/oauth"
	"github.com/brokerdesk/connect/internal/connectors"
	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

const (
	defaultLoginBase = "https://login.microsoftonline.com"
	defaultTenant    = "common"
	defaultGraphBase = "https://graph.microsoft.com/v1.0"

	// defaultTokenTTL applies when the token response omits expires_in.
	// Graph access tokens last an hour.
	defaultTokenTTL = time.Hour
)

var _ driven.Connector = (*Connector)(nil)

// Config holds the Outlook connector configuration.
type Config struct {
	Credential domain.ProviderCredential
	// Tenant is the directory tenant in the login URL. Defaults to
	// "common", which accepts any work/school or personal account.
	Tenant string
	// LoginBase overrides the identity host (tests).
	LoginBase string
	// GraphBase overrides the Graph API base URL (tests).
	GraphBase string
	HTTPClient *http.Client
}

// Connector is the Microsoft 365 provider connector.
type Connector struct {
	connectors.UnsupportedFetches

	cred      domain.ProviderCredential
	loginBase string
	tenant    string
	graphBase string
	http      *http.Client
	api       *connectors.Client
}

// New creates an Outlook connector.
func New(cfg Config) *Connector {
	loginBase := strings.TrimSuffix(cfg.LoginBase, "/")
	if loginBase == "" {
		loginBase = defaultLoginBase
	}
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}
	graphBase := strings.TrimSuffix(cfg.GraphBase, "/")
	if graphBase == "" {
		graphBase = defaultGraphBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: connectors.DefaultTimeout}
	}

	return &Connector{
		cred:      cfg.Credential,
		loginBase: loginBase,
		tenant:    tenant,
		graphBase: graphBase,
		http:      httpClient,
		api:       connectors.NewClient(domain.ProviderOutlook, httpClient, connectors.NewRateLimiter(domain.ProviderOutlook)),
	}
}

// Provider returns the Outlook identifier.
func (c *Connector) Provider() domain.ProviderID {
	return domain.ProviderOutlook
}

// Capabilities declares the mailbox fetches Outlook supports.
func (c *Connector) Capabilities() domain.Capability {
	return domain.CapEmails | domain.CapCalendar
}

// AuthURL builds the Microsoft identity platform authorization URL. The
// offline_access scope is what makes the token endpoint return a refresh
// token; it is appended if the configured scopes omit it.
func (c *Connector) AuthURL(state string) string {
	scopes := c.cred.Scopes
	if !containsScope(scopes, "offline_access") {
		scopes = append(append([]string{}, scopes...), "offline_access")
	}

	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cred.ClientID},
		"redirect_uri":  {c.cred.RedirectURI},
		"scope":         {strings.Join(scopes, " ")},
		"response_mode": {"query"},
	}
	if state != "" {
		params.Set("state", state)
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/authorize?%s", c.loginBase, c.tenant, params.Encode())
}

// ExchangeCode performs the authorization-code grant.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	form := drivenoauth.AuthCodeGrant(c.cred.ClientID, c.cred.ClientSecret, code, c.cred.RedirectURI)
	form.Set("scope", strings.Join(c.cred.Scopes, " "))

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL(), form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("outlook exchange: %w: %w", domain.ErrExchangeFailed, err)
		}
		return nil, fmt.Errorf("outlook exchange: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, "")
	return &tok, nil
}

// Refresh performs the refresh-token grant. The identity platform requires
// the scope parameter on refresh, unlike the other providers, and rotates
// the refresh token on every call.
func (c *Connector) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	form := drivenoauth.RefreshGrant(c.cred.ClientID, c.cred.ClientSecret, refreshToken)
	form.Set("scope", strings.Join(c.cred.Scopes, " "))

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL(), form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("outlook refresh: %w: %w", domain.ErrRefreshFailed, err)
		}
		return nil, fmt.Errorf("outlook refresh: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, refreshToken)
	return &tok, nil
}

// Revoke is a no-op: the Microsoft identity platform has no token
// revocation endpoint for this grant. Disconnecting drops the stored token,
// and the upstream grant ages out on its own.
func (c *Connector) Revoke(context.Context, *domain.Token) error {
	return nil
}

// TestConnection fetches the signed-in user's profile.
func (c *Connector) TestConnection(ctx context.Context, token *domain.Token) bool {
	resp, err := c.api.Do(ctx, token, http.MethodGet, c.graphBase+"/me")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Connector) tokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginBase, c.tenant)
}

func containsScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
