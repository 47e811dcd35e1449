// Package services implements the driving port interfaces.
// The registry builds connectors from configured credentials; the dispatcher
// orchestrates OAuth completion, token refresh, capability checks, and
// record fetching across the driven ports.
package services
