// Package driven defines the secondary ports of the connector core: the
// contracts implemented by provider connectors and by the storage adapters.
// Services depend on these interfaces, never on concrete adapters.
package driven
