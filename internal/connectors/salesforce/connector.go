// Package salesforce implements the Salesforce connector. Salesforce
// exposes data through a generic SOQL query endpoint rather than per-entity
// REST resources, so all fetches go through the query builder in query.go.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	drivenoauth "github.com/brokerdesk/connect/internal/adapters/driven/oauth"
	"github.com/brokerdesk/connect/internal/connectors"
	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
	"github.com/brokerdesk/connect/internal/logger"
)

const (
	defaultLoginURL = "https://login.salesforce.com"
	apiVersion      = "v59.0"

	// defaultTokenTTL applies when the token response omits expires_in.
	// Salesforce session tokens default to a two hour lifetime.
	defaultTokenTTL = 2 * time.Hour
)

// Ensure Connector implements the contract.
var _ driven.Connector = (*Connector)(nil)

// Config holds the Salesforce connector configuration.
type Config struct {
	// Credential is the OAuth application credential.
	Credential domain.ProviderCredential
	// LoginURL overrides the login host (sandboxes, tests).
	LoginURL string
	// APIBase is the instance URL data calls go to. Defaults to LoginURL.
	APIBase string
	// HTTPClient overrides the default bounded-timeout client.
	HTTPClient *http.Client
}

// Connector is the Salesforce provider connector. Instances are stateless
// request executors, safe for concurrent use.
type Connector struct {
	cred     domain.ProviderCredential
	loginURL string
	apiBase  string
	http     *http.Client
	api      *connectors.Client
}

// New creates a Salesforce connector.
func New(cfg Config) *Connector {
	loginURL := strings.TrimSuffix(cfg.LoginURL, "/")
	if loginURL == "" {
		loginURL = defaultLoginURL
	}
	apiBase := strings.TrimSuffix(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = loginURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: connectors.DefaultTimeout}
	}

	return &Connector{
		cred:     cfg.Credential,
		loginURL: loginURL,
		apiBase:  apiBase,
		http:     httpClient,
		api:      connectors.NewClient(domain.ProviderSalesforce, httpClient, connectors.NewRateLimiter(domain.ProviderSalesforce)),
	}
}

// Provider returns the Salesforce identifier.
func (c *Connector) Provider() domain.ProviderID {
	return domain.ProviderSalesforce
}

// Capabilities declares the CRM-record fetches Salesforce supports.
func (c *Connector) Capabilities() domain.Capability {
	return domain.CapAccounts | domain.CapContacts | domain.CapActivities
}

// AuthURL builds the Salesforce authorization URL.
func (c *Connector) AuthURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.cred.ClientID},
		"redirect_uri":  {c.cred.RedirectURI},
		"scope":         {strings.Join(c.cred.Scopes, " ")},
	}
	if state != "" {
		params.Set("state", state)
	}
	return c.loginURL + "/services/oauth2/authorize?" + params.Encode()
}

// ExchangeCode performs the authorization-code grant.
func (c *Connector) ExchangeCode(ctx context.Context, code string) (*domain.Token, error) {
	form := drivenoauth.AuthCodeGrant(c.cred.ClientID, c.cred.ClientSecret, code, c.cred.RedirectURI)

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL(), form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("salesforce exchange: %w: %w", domain.ErrExchangeFailed, err)
		}
		return nil, fmt.Errorf("salesforce exchange: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, "")
	return &tok, nil
}

// Refresh performs the refresh-token grant. Salesforce does not reissue
// refresh tokens, so the original is preserved.
func (c *Connector) Refresh(ctx context.Context, refreshToken string) (*domain.Token, error) {
	form := drivenoauth.RefreshGrant(c.cred.ClientID, c.cred.ClientSecret, refreshToken)

	resp, err := drivenoauth.PostForm(ctx, c.http, c.tokenURL(), form)
	if err != nil {
		if drivenoauth.IsGrantRejected(err) {
			return nil, fmt.Errorf("salesforce refresh: %w: %w", domain.ErrRefreshFailed, err)
		}
		return nil, fmt.Errorf("salesforce refresh: %w", err)
	}

	tok := resp.Token(time.Now(), defaultTokenTTL, refreshToken)
	return &tok, nil
}

// Revoke revokes the token at Salesforce. Best effort.
func (c *Connector) Revoke(ctx context.Context, token *domain.Token) error {
	form := url.Values{"token": {token.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.loginURL+"/services/oauth2/revoke", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("salesforce revoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("salesforce revoke returned %d", resp.StatusCode)
	}
	return nil
}

// TestConnection lists the available API versions, the cheapest
// authenticated call Salesforce offers.
func (c *Connector) TestConnection(ctx context.Context, token *domain.Token) bool {
	resp, err := c.api.Do(ctx, token, http.MethodGet, c.apiBase+"/services/data/")
	if err != nil {
		logger.Debug("salesforce: connection test failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}

// FetchAccounts queries Account records.
func (c *Connector) FetchAccounts(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Account, error) {
	soql, err := accountsQuery(opts)
	if err != nil {
		return nil, err
	}

	records, partial, err := c.query(ctx, token, soql)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(records))
	for _, raw := range records {
		var rec accountRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			partial = appendPartial(partial, fmt.Errorf("account record: %w", err))
			continue
		}
		accounts = append(accounts, rec.normalize())
	}

	return accounts, partialOrNil(partial)
}

// FetchContacts queries Contact records, optionally scoped to an account.
func (c *Connector) FetchContacts(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Contact, error) {
	soql, err := contactsQuery(opts)
	if err != nil {
		return nil, err
	}

	records, partial, err := c.query(ctx, token, soql)
	if err != nil {
		return nil, err
	}

	contacts := make([]domain.Contact, 0, len(records))
	for _, raw := range records {
		var rec contactRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			partial = appendPartial(partial, fmt.Errorf("contact record: %w", err))
			continue
		}
		contacts = append(contacts, rec.normalize())
	}

	return contacts, partialOrNil(partial)
}

// FetchActivities queries Task records.
func (c *Connector) FetchActivities(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Activity, error) {
	soql, err := activitiesQuery(opts)
	if err != nil {
		return nil, err
	}

	records, partial, err := c.query(ctx, token, soql)
	if err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, 0, len(records))
	for _, raw := range records {
		var rec taskRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			partial = appendPartial(partial, fmt.Errorf("task record: %w", err))
			continue
		}
		activities = append(activities, rec.normalize())
	}

	return activities, partialOrNil(partial)
}

// FetchEmails is not supported by the Salesforce variant.
func (c *Connector) FetchEmails(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Email, error) {
	return nil, domain.ErrUnsupportedOperation
}

// FetchCalendarEvents is not supported by the Salesforce variant.
func (c *Connector) FetchCalendarEvents(context.Context, *domain.Token, domain.FetchOptions) ([]domain.CalendarEvent, error) {
	return nil, domain.ErrUnsupportedOperation
}

// queryResponse is the envelope of the generic query endpoint: records are
// returned as an array under the "records" field.
type queryResponse struct {
	TotalSize int               `json:"totalSize"`
	Done      bool              `json:"done"`
	Records   []json.RawMessage `json:"records"`
}

// query runs a SOQL query. The full query string is URL-escaped; see
// query.go for the identifier validation that happens before interpolation.
func (c *Connector) query(ctx context.Context, token *domain.Token, soql string) ([]json.RawMessage, *domain.PartialFetchError, error) {
	endpoint := fmt.Sprintf("%s/services/data/%s/query?q=%s", c.apiBase, apiVersion, url.QueryEscape(soql))

	var resp queryResponse
	if err := c.api.GetJSON(ctx, token, endpoint, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Records, nil, nil
}

func (c *Connector) tokenURL() string {
	return c.loginURL + "/services/oauth2/token"
}

func appendPartial(pe *domain.PartialFetchError, err error) *domain.PartialFetchError {
	if pe == nil {
		pe = &domain.PartialFetchError{}
	}
	pe.Failed++
	pe.Errs = append(pe.Errs, err)
	return pe
}

func partialOrNil(pe *domain.PartialFetchError) error {
	if pe == nil {
		return nil
	}
	return pe
}
