package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent connector-core failures. These are distinct from
// infrastructure errors and are matched with errors.Is by the dispatcher
// and the transport adapters.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownProvider indicates a provider identifier outside the
	// closed variant set.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrProviderNotConfigured indicates no credential exists for the
	// provider. Fatal for the request, never retryable, and detected
	// before any network call.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrAuthorizationDenied indicates the user declined the consent
	// screen or the provider returned an error on callback.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrExchangeFailed indicates the provider rejected the
	// authorization-code grant.
	ErrExchangeFailed = errors.New("code exchange failed")

	// ErrRefreshFailed indicates the provider rejected the refresh-token
	// grant. Terminal for that token: the caller must re-authorize.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrReauthorizationRequired is the caller-facing signal to re-show
	// the connect flow after a refresh failure or missing token.
	ErrReauthorizationRequired = errors.New("reauthorization required")

	// ErrUnsupportedOperation indicates the provider variant does not
	// implement a fetch capability. Callers should hide the feature, not
	// retry.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUpstreamUnavailable indicates a network fault, timeout, or 5xx
	// from the provider. Transient; safe to retry with backoff.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// PartialFetchError reports that some records in a fetch batch failed while
// others succeeded. It is returned alongside the successful subset, never
// instead of it.
type PartialFetchError struct {
	// Failed is the number of records that could not be fetched or mapped.
	Failed int
	// Errs holds one error per failed record.
	Errs []error
}

// Error implements the error interface.
func (e *PartialFetchError) Error() string {
	return fmt.Sprintf("partial fetch failure: %d record(s) failed", e.Failed)
}

// Unwrap exposes the per-record errors to errors.Is/As.
func (e *PartialFetchError) Unwrap() []error {
	return e.Errs
}

// AsPartial returns the PartialFetchError inside err, if any.
func AsPartial(err error) (*PartialFetchError, bool) {
	var pe *PartialFetchError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
