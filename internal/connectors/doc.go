// Package connectors provides the provider connector implementations and
// the plumbing they share: unsupported-fetch defaults, authenticated API
// calls with error classification, and per-provider rate limiting.
//
// Each provider lives in its own subpackage (salesforce, google, outlook,
// hubspot) and encapsulates that provider's endpoint shapes, grant quirks,
// response envelopes, and field extraction. Everything a connector returns
// is mapped into the normalized record types of the domain package.
package connectors
