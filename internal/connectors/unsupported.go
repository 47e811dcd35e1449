package connectors

import (
	"context"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// UnsupportedFetches provides the "not supported" defaults for the optional
// fetch operations. Connectors embed it and override only the operations
// their provider implements; everything else fails with the distinguished
// domain.ErrUnsupportedOperation rather than a generic fault.
type UnsupportedFetches struct{}

// FetchAccounts is not supported.
func (UnsupportedFetches) FetchAccounts(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Account, error) {
	return nil, domain.ErrUnsupportedOperation
}

// FetchContacts is not supported.
func (UnsupportedFetches) FetchContacts(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Contact, error) {
	return nil, domain.ErrUnsupportedOperation
}

// FetchActivities is not supported.
func (UnsupportedFetches) FetchActivities(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Activity, error) {
	return nil, domain.ErrUnsupportedOperation
}

// FetchEmails is not supported.
func (UnsupportedFetches) FetchEmails(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Email, error) {
	return nil, domain.ErrUnsupportedOperation
}

// FetchCalendarEvents is not supported.
func (UnsupportedFetches) FetchCalendarEvents(context.Context, *domain.Token, domain.FetchOptions) ([]domain.CalendarEvent, error) {
	return nil, domain.ErrUnsupportedOperation
}
