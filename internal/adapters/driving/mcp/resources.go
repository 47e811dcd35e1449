package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/brokerdesk/connect/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for connector resources.
	uriScheme = "connect://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing provider connection status.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "providers",
		Name:        "providers",
		Description: "Connection status of every supported provider",
		MIMEType:    "application/json",
	}, s.handleProvidersResource)

	// Template for per-provider capabilities.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "providers/{provider}/capabilities",
		Name:        "provider-capabilities",
		Description: "Record types a provider can fetch",
		MIMEType:    "application/json",
	}, s.handleCapabilitiesResource)
}

// handleProvidersResource returns the connection status of every provider.
func (s *Server) handleProvidersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Connections == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	statuses, err := s.ports.Connections.Status(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("listing provider status: %w", err)
	}

	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling provider status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleCapabilitiesResource returns the record types a provider supports.
func (s *Server) handleCapabilitiesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractProvider(req.Params.URI)
	provider, err := domain.ParseProviderID(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type capInfo struct {
		Capability string `json:"capability"`
		Supported  bool   `json:"supported"`
	}

	caps := []struct {
		name string
		cap  domain.Capability
	}{
		{"accounts", domain.CapAccounts},
		{"contacts", domain.CapContacts},
		{"activities", domain.CapActivities},
		{"emails", domain.CapEmails},
		{"calendar", domain.CapCalendar},
	}

	infos := make([]capInfo, len(caps))
	for i, c := range caps {
		infos[i] = capInfo{
			Capability: c.name,
			Supported:  s.ports.Fetch.Supports(provider, c.cap),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling capabilities: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractProvider extracts the provider name from a URI like
// connect://providers/{provider}/capabilities.
func extractProvider(uri string) string {
	const prefix = uriScheme + "providers/"
	const suffix = "/capabilities"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
