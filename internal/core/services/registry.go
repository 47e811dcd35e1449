package services

import (
	"fmt"

	"github.com/brokerdesk/connect/internal/connectors/google"
	"github.com/brokerdesk/connect/internal/connectors/hubspot"
	"github.com/brokerdesk/connect/internal/connectors/outlook"
	"github.com/brokerdesk/connect/internal/connectors/salesforce"
	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
)

// ConnectorSource resolves configured provider connectors. The dispatcher
// depends on this rather than the concrete registry so tests can substitute
// fake connectors.
type ConnectorSource interface {
	// Connector returns the provider's connector, or
	// domain.ErrProviderNotConfigured / domain.ErrUnknownProvider.
	Connector(provider domain.ProviderID) (driven.Connector, error)

	// Configured reports whether the provider has a usable credential.
	Configured(provider domain.ProviderID) bool
}

// Ensure Registry implements the interface.
var _ ConnectorSource = (*Registry)(nil)

// Registry holds the connector instances built from the configured
// credentials. Providers without a credential are known but unavailable;
// asking for them yields domain.ErrProviderNotConfigured.
type Registry struct {
	connectors map[domain.ProviderID]driven.Connector
}

// RegistryConfig carries per-provider construction options beyond the
// credential itself.
type RegistryConfig struct {
	Credentials map[domain.ProviderID]domain.ProviderCredential

	// SalesforceLoginURL and SalesforceAPIBase point at a sandbox or
	// instance URL when set.
	SalesforceLoginURL string
	SalesforceAPIBase  string

	// OutlookTenant restricts sign-in to one directory tenant.
	OutlookTenant string
}

// NewRegistry builds connectors for every configured credential.
func NewRegistry(cfg RegistryConfig) *Registry {
	r := &Registry{connectors: make(map[domain.ProviderID]driven.Connector)}

	for provider, cred := range cfg.Credentials {
		if !cred.Configured() {
			continue
		}
		switch provider {
		case domain.ProviderSalesforce:
			r.connectors[provider] = salesforce.New(salesforce.Config{
				Credential: cred,
				LoginURL:   cfg.SalesforceLoginURL,
				APIBase:    cfg.SalesforceAPIBase,
			})
		case domain.ProviderGoogle:
			r.connectors[provider] = google.New(google.Config{Credential: cred})
		case domain.ProviderOutlook:
			r.connectors[provider] = outlook.New(outlook.Config{
				Credential: cred,
				Tenant:     cfg.OutlookTenant,
			})
		case domain.ProviderHubSpot:
			r.connectors[provider] = hubspot.New(hubspot.Config{Credential: cred})
		}
	}

	return r
}

// Register installs a connector directly, replacing any existing one for
// the same provider.
func (r *Registry) Register(c driven.Connector) {
	r.connectors[c.Provider()] = c
}

// Connector returns the provider's connector.
func (r *Registry) Connector(provider domain.ProviderID) (driven.Connector, error) {
	if _, err := domain.ParseProviderID(string(provider)); err != nil {
		return nil, err
	}
	c, ok := r.connectors[provider]
	if !ok {
		return nil, fmt.Errorf("%s: %w", provider, domain.ErrProviderNotConfigured)
	}
	return c, nil
}

// Configured reports whether the provider has a connector.
func (r *Registry) Configured(provider domain.ProviderID) bool {
	_, ok := r.connectors[provider]
	return ok
}
