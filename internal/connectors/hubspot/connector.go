// Package hubspot implements the HubSpot connector: companies, contacts,
// and engagements through the CRM REST API.
package hubspot

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
	defaultAuthBase = "https://app.hubspot.com"
	defaultAPIBase  = "https://api.hubapi.com"

	// defaultTokenTTL applies when the token response omits expires_in.
	// HubSpot access tokens last six hours.
	defaultTokenTTL = 6 * time.Hour
)

var _ driven.Connector = (*Connector)(nil)

// Config holds the HubSpot connector configuration.
type Config struct {
	Credential domain.ProviderCredential
	// AuthBase overrides the app host serving the consent page (tests).
	AuthBase string
	// APIBase overrides the API host (tests).
	APIBase    string
	HTTPClient *http.Client
}

// Connector is the HubSpot provider connector.
type Connector struct {
	cred     domain.ProviderCredential
	authBase string
	apiBase  string
	http     *http.Client
	api      *connectors.Client
}

// New creates a HubSpot connector.
func New(cfg Config) *Connector {
	authBase := strings.TrimSuffix(cfg.AuthBase, "/")
	if authBase == "" {
		authBase = defaultAuthBase
	}
	apiBase := strings.TrimSuffix(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: connectors.DefaultTimeout}
	}

	return &Connector{
		cred:     cfg.Credential,
		authBase: authBase,
		apiBase:  apiBase,
		http:     httpClient,
		api:      connectors.NewClient(domain.ProviderHubSpot, httpClient, connectors.NewRateLimiter(domain.ProviderHubSpot)),
	}
}

// Provider returns the HubSpot identifier.
func (c *Connector) Provider() domain.ProviderID {
	return domain.ProviderHubSpot
}

// Capabilities declares the CRM-record fetches HubSpot supports.
func (c *Connector) Capabilities() domain.Capability {
	return domain.CapAccounts | domain.CapContacts | domain.CapActivities
}

// AuthURL builds the HubSpot consent URL.
func (c *Connector) AuthURL(state string) string {
	params := url.Values{
		"client_id":    {c.cred.ClientID},
		"redirect_uri": {c.cred.RedirectURI},
		"scope":        {strings.Join(c.cred.Scopes, " ")},
	}
	if state != "" {
		params.Set("state", state)
	}
	return c.authBase + "/oauth/authorize?" + params.Encode()
}

// ExchangeCode performs the authorization-code grant.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	form := drivenoauth.AuthCodeGrant(c.cred.ClientID, c.cred.ClientSecret, code, c.cred.RedirectURI)

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL(), form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("hubspot exchange: %w: %w", domain.ErrExchangeFailed, err)
		}
		return nil, fmt.Errorf("hubspot exchange: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, "")
	return &tok, nil
}

// Refresh performs the refresh-token grant.
func (c *Connector) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	form := drivenoauth.RefreshGrant(c.cred.ClientID, c.cred.ClientSecret, refreshToken)

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL(), form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("hubspot refresh: %w: %w", domain.ErrRefreshFailed, err)
		}
		return nil, fmt.Errorf("hubspot refresh: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, refreshToken)
	return &tok, nil
}

// Revoke deletes the refresh token, which invalidates the whole grant.
// HubSpot keys revocation on the refresh token, not the access token.
func (c *Connector) Revoke(ctx context.Context, token *domain.Token) error {
	if token.RefreshToken == "" {
		return nil
	}

	endpoint := c.apiBase + "/oauth/v1/refresh-tokens/" + url.PathEscape(token.RefreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot revoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("hubspot revoke returned %d", resp.StatusCode)
	}
	return nil
}

// TestConnection introspects the access token.
func (c *Connector) TestConnection(ctx context.Context, token *domain.Token) bool {
	endpoint := c.apiBase + "/oauth/v1/access-tokens/" + url.PathEscape(token.AccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Connector) tokenURL() string {
	return c.apiBase + "/oauth/v1/token"
}
