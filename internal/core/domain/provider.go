package domain

import "strings"

// ProviderID identifies an external system. The provider set is closed and
// known at build time; there is no plugin mechanism.
type ProviderID string

const (
	// ProviderSalesforce is the Salesforce CRM (SOQL query API).
	ProviderSalesforce ProviderID = "salesforce"
	// ProviderGoogle is Google Workspace (Gmail, Calendar).
	ProviderGoogle ProviderID = "google"
	// ProviderOutlook is Microsoft 365 via the Graph API.
	ProviderOutlook ProviderID = "outlook"
	// ProviderHubSpot is the HubSpot marketing CRM.
	ProviderHubSpot ProviderID = "hubspot"
)

// Providers lists all known providers in display order.
var Providers = []ProviderID{
	ProviderSalesforce,
	ProviderGoogle,
	ProviderOutlook,
	ProviderHubSpot,
}

// ParseProviderID normalizes a provider identifier from user input.
// Returns ErrUnknownProvider for identifiers outside the closed set.
func ParseProviderID(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	for _, p := range Providers {
		if id == p {
			return p, nil
		}
	}
	return "", ErrUnknownProvider
}

// String returns the identifier as a plain string.
func (p ProviderID) String() string {
	return string(p)
}

// ProviderCredential holds the OAuth application credentials for one
// provider. Loaded at process start and never mutated afterwards.
type ProviderCredential struct {
	// ClientID is the OAuth client ID from the provider's developer console.
	ClientID string
	// ClientSecret is the OAuth client secret.
	ClientSecret string
	// RedirectURI is the registered callback URI.
	RedirectURI string
	// Scopes are the OAuth scopes to request.
	Scopes []string
}

// Configured reports whether the credential is usable.
func (c ProviderCredential) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ProviderStatus is the per-provider connection summary reported to callers.
type ProviderStatus struct {
	Provider   ProviderID `json:"provider"`
	Configured bool       `json:"configured"`
	Connected  bool       `json:"connected"`
}
