package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// FetchCalendarEvents lists events from the primary calendar, recurring
// events expanded into instances.
func (c *Connector) FetchCalendarEvents(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.CalendarEvent, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, c.serviceOptions(token)...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	call := svc.Events.List("primary").
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(opts.Bound()))
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}
	if !opts.Since.IsZero() {
		call = call.TimeMin(opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		call = call.TimeMax(opts.Until.UTC().Format(time.RFC3339))
	}

	list, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError(err)
	}

	events := make([]domain.CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, normalizeEvent(item))
	}
	return events, nil
}

func normalizeEvent(item *calendar.Event) domain.CalendarEvent {
	event := domain.CalendarEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       parseEventTime(item.Start),
		End:         parseEventTime(item.End),
	}
	for _, a := range item.Attendees {
		if a.Email != "" {
			event.Attendees = append(event.Attendees, a.Email)
		}
	}
	return event
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date only).
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
