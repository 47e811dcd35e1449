// Package google implements the Google Workspace connector: Gmail messages
// and Calendar events through the official API clients, with the grant
// flows done directly against Google's OAuth2 endpoints.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	drivenoauth "github.com/brokerdesk/connect/internal/adapters/driven/oauth"
	"github.com/brokerdesk/connect/internal/connectors"
	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

const (
	defaultAuthURL   = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultRevokeURL = "https://oauth2.googleapis.com/revoke"
	userInfoURL      = "https://www.googleapis.com/oauth2/v2/userinfo"

	// defaultTokenTTL applies when the token response omits expires_in.
	// Google access tokens last an hour.
	defaultTokenTTL = time.Hour
)

var _ driven.Connector = (*Connector)(nil)

// Config holds the Google connector configuration. The endpoint overrides
// exist for tests; production leaves them empty.
type Config struct {
	Credential domain.ProviderCredential
	TokenURL   string
	RevokeURL  string
	// APIEndpoint overrides the Gmail and Calendar API base URL.
	APIEndpoint string
	// UserInfoURL overrides the profile endpoint used by TestConnection.
	UserInfoURL string
	HTTPClient  *http.Client
}

// Connector is the Google Workspace provider connector.
type Connector struct {
	connectors.UnsupportedFetches

	cred        domain.ProviderCredential
	tokenURL    string
	revokeURL   string
	apiEndpoint string
	userInfoURL string
	http        *http.Client
	limiter     *connectors.RateLimiter
}

// New creates a Google connector.
func New(cfg Config) *Connector {
	c := &Connector{
		cred:        cfg.Credential,
		tokenURL:    cfg.TokenURL,
		revokeURL:   cfg.RevokeURL,
		apiEndpoint: cfg.APIEndpoint,
		userInfoURL: cfg.UserInfoURL,
		http:        cfg.HTTPClient,
		limiter:     connectors.NewRateLimiter(domain.ProviderGoogle),
	}
	if c.tokenURL == "" {
		c.tokenURL = defaultTokenURL
	}
	if c.revokeURL == "" {
		c.revokeURL = defaultRevokeURL
	}
	if c.userInfoURL == "" {
		c.userInfoURL = userInfoURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: connectors.DefaultTimeout}
	}
	return c
}

// Provider returns the Google identifier.
func (c *Connector) Provider() domain.ProviderID {
	return domain.ProviderGoogle
}

// Capabilities declares the mailbox fetches Google supports.
func (c *Connector) Capabilities() domain.Capability {
	return domain.CapEmails | domain.CapCalendar
}

// AuthURL builds the consent URL. access_type=offline with prompt=consent
// is what makes Google issue a refresh token; without both it only comes
// back on the very first authorization.
func (c *Connector) AuthURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cred.ClientID},
		"redirect_uri":  {c.cred.RedirectURI},
		"scope":         {strings.Join(c.cred.Scopes, " ")},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	if state != "" {
		params.Set("state", state)
	}
	return defaultAuthURL + "?" + params.Encode()
}

// ExchangeCode performs the authorization-code grant.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	form := drivenoauth.AuthCodeGrant(c.cred.ClientID, c.cred.ClientSecret, code, c.cred.RedirectURI)

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL, form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("google exchange: %w: %w", domain.ErrExchangeFailed, err)
		}
		return nil, fmt.Errorf("google exchange: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, "")
	return &tok, nil
}

// Refresh performs the refresh-token grant. Google never reissues the
// refresh token on this grant, so the original is preserved.
func (c *Connector) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	form := drivenoauth.RefreshGrant(c.cred.ClientID, c.cred.ClientSecret, refreshToken)

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL, form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("google refresh: %w: %w", domain.ErrRefreshFailed, err)
		}
		return nil, fmt.Errorf("google refresh: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, refreshToken)
	return &tok, nil
}

// Revoke revokes the token. Google revokes the whole grant, refresh token
// included, from either token value.
func (c *Connector) Revoke(ctx context.Context, token *domain.Token) error {
	form := url.Values{"token": {token.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("google revoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("google revoke returned %d", resp.StatusCode)
	}
	return nil
}

// TestConnection fetches the user profile, the cheapest authenticated call.
func (c *Connector) TestConnection(ctx context.Context, token *domain.Token) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// serviceOptions builds the client options shared by the Gmail and Calendar
// services: a static token source carrying the stored access token, plus
// the endpoint override when configured.
func (c *Connector) serviceOptions(token *domain.Token) []option.ClientOption {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token.AccessToken,
			TokenType:   "Bearer",
		})),
	}
	if c.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.apiEndpoint))
	}
	return opts
}

// classifyAPIError maps Google API client errors onto the domain taxonomy:
// 5xx and transport faults are transient upstream failures, anything else
// surfaces as-is.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("google returned %d: %w", apiErr.Code, domain.ErrUpstreamUnavailable)
		}
		return err
	}
	// Non-HTTP failure from the client is a transport fault.
	return fmt.Errorf("google request: %w: %w", domain.ErrUpstreamUnavailable, err)
}
