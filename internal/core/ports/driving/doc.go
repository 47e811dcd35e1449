// Package driving defines the primary ports of the connector core: the
// interfaces through which the transport adapters (HTTP API, MCP, CLI)
// invoke connector operations.
package driving
