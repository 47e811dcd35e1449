package mcp

import (
	"github.com/brokerdesk/connect/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Fetch retrieves normalized records from connected providers.
	Fetch driving.FetchService

	// Connections reports provider connection status.
	Connections driving.ConnectionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Fetch == nil {
		return ErrMissingFetchService
	}
	// Connections is optional; without it the status resource is empty.
	return nil
}
