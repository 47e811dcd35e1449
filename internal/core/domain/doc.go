// Package domain contains the core types of the connector framework:
// provider identifiers, OAuth tokens, connection records, the normalized
// record shapes returned by every provider, and the shared error taxonomy.
// It has no dependencies on adapters or external services.
package domain
