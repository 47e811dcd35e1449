package domain

import "time"

// DefaultFetchLimit bounds fetch results when the caller does not.
const DefaultFetchLimit = 50

// MaxFetchLimit is the hard ceiling on a single fetch.
const MaxFetchLimit = 500

// FetchOptions carries the provider-appropriate filters accepted by every
// fetch operation. Connectors ignore filters their provider cannot express.
type FetchOptions struct {
	// Query is a free-text filter.
	Query string
	// Since and Until bound the record date range when set.
	Since time.Time
	Until time.Time
	// ParentID scopes the fetch to a parent record (e.g. contacts of an
	// account). Connectors validate it before use; see the per-provider
	// query builders.
	ParentID string
	// Limit bounds the result size; zero means DefaultFetchLimit.
	Limit int
}

// Bound returns the effective result-size bound.
func (o FetchOptions) Bound() int {
	switch {
	case o.Limit <= 0:
		return DefaultFetchLimit
	case o.Limit > MaxFetchLimit:
		return MaxFetchLimit
	default:
		return o.Limit
	}
}
