// Package oauth implements the OAuth2 token-endpoint grants shared by all
// provider connectors: authorization-code exchange and refresh. Connectors
// supply provider-specific form parameters; this package owns transport,
// timeouts, and error classification.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// DefaultTimeout bounds every token-endpoint call.
const DefaultTimeout = 30 * time.Second

// TokenResponse holds the provider's token-endpoint response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// Token converts the response into a domain token. fallbackTTL supplies the
// expiry when the provider omits expires_in; prevRefresh is kept when the
// provider does not reissue a refresh token.
func (r *TokenResponse) Token(now time.Time, fallbackTTL time.Duration, prevRefresh string) domain.Token {
	ttl := fallbackTTL
	if r.ExpiresIn > 0 {
		ttl = time.Duration(r.ExpiresIn) * time.Second
	}

	refresh := r.RefreshToken
	if refresh == "" {
		refresh = prevRefresh
	}

	var scopes []string
	if r.Scope != "" {
		scopes = strings.Fields(r.Scope)
	}

	return domain.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(ttl),
		Scopes:       scopes,
	}
}

// GrantError is a non-2xx, non-5xx token-endpoint response: the provider
// rejected the grant itself (bad code, expired refresh token, mismatched
// redirect URI). Not retryable.
type GrantError struct {
	StatusCode  int
	Code        string
	Description string
}

// Error implements the error interface.
func (e *GrantError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("oauth: grant rejected (%d): %s - %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("oauth: grant rejected with status %d", e.StatusCode)
}

// IsGrantRejected reports whether err is a provider-side grant rejection,
// as opposed to a transport fault.
func IsGrantRejected(err error) bool {
	var ge *GrantError
	return errors.As(err, &ge)
}

// PostForm posts an x-www-form-urlencoded grant request to tokenURL and
// decodes the response. Transport faults, timeouts, and 5xx responses wrap
// domain.ErrUpstreamUnavailable (transient, retryable); 4xx responses
// return a *GrantError.
func PostForm(ctx context.Context, client *http.Client, tokenURL string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("token endpoint returned %d: %w", resp.StatusCode, domain.ErrUpstreamUnavailable)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		ge := &GrantError{StatusCode: resp.StatusCode}
		var body struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			ge.Code = body.Error
			ge.Description = body.Description
		}
		return nil, ge
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, &GrantError{StatusCode: resp.StatusCode, Code: "invalid_response", Description: "no access_token in response"}
	}

	return &tokenResp, nil
}

// AuthCodeGrant builds the standard authorization-code form. Connectors add
// provider-specific parameters before posting.
func AuthCodeGrant(clientID, clientSecret, code, redirectURI string) url.Values {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	return form
}

// RefreshGrant builds the standard refresh-token form.
func RefreshGrant(clientID, clientSecret, refreshToken string) url.Values {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)
	return form
}
