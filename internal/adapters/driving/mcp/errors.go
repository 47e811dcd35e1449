// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants fetch CRM records, emails and calendar events from
// a user's connected providers.
package mcp

import "errors"

// ErrMissingFetchService is returned when the fetch service is not provided.
var ErrMissingFetchService = errors.New("mcp: fetch service is required")

// ErrMissingUserID is returned when no user id is configured for the session.
var ErrMissingUserID = errors.New("mcp: user id is required")
