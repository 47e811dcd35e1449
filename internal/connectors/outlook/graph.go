package outlook

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// graphList is the collection envelope every Graph list endpoint returns:
// items live under the "value" field.
type graphList[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

type emailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type graphMessage struct {
	ID               string      `json:"id"`
	Subject          string      `json:"subject"`
	BodyPreview      string      `json:"bodyPreview"`
	From             *recipient  `json:"from"`
	ToRecipients     []recipient `json:"toRecipients"`
	ReceivedDateTime string      `json:"receivedDateTime"`
	IsRead           bool        `json:"isRead"`
}

// graphTime is a Graph dateTimeTimeZone value. The dateTime carries no
// offset; the timeZone field names the zone it is expressed in.
type graphTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	ID          string      `json:"id"`
	Subject     string      `json:"subject"`
	BodyPreview string      `json:"bodyPreview"`
	Start       graphTime   `json:"start"`
	End         graphTime   `json:"end"`
	Attendees   []recipient `json:"attendees"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

// FetchEmails lists messages from the signed-in user's mailbox.
func (c *Connector) FetchEmails(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Email, error) {
	params := url.Values{
		"$top":     {strconv.Itoa(opts.Bound())},
		"$select":  {"id,subject,bodyPreview,from,toRecipients,receivedDateTime,isRead"},
		"$orderby": {"receivedDateTime desc"},
	}
	if filter := timeFilter("receivedDateTime", opts); filter != "" {
		params.Set("$filter", filter)
		// $orderby with $filter on the same property needs the filter
		// property first; Graph rejects the combination otherwise.
		params.Del("$orderby")
	}
	if opts.Query != "" {
		params.Set("$search", strconv.Quote(opts.Query))
		// $search cannot be combined with $filter or $orderby.
		params.Del("$filter")
		params.Del("$orderby")
	}

	var list graphList[graphMessage]
	if err := c.api.GetJSON(ctx, token, c.graphBase+"/me/messages?"+params.Encode(), &list); err != nil {
		return nil, err
	}

	emails := make([]domain.Email, 0, len(list.Value))
	for _, msg := range list.Value {
		emails = append(emails, msg.normalize())
	}
	return emails, nil
}

// FetchCalendarEvents lists the user's calendar events. When a time window
// is given, calendarView expands recurring events into instances; otherwise
// the plain events listing is used.
func (c *Connector) FetchCalendarEvents(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.CalendarEvent, error) {
	params := url.Values{
		"$top":    {strconv.Itoa(opts.Bound())},
		"$select": {"id,subject,bodyPreview,start,end,attendees,location"},
	}

	endpoint := c.graphBase + "/me/events"
	if !opts.Since.IsZero() && !opts.Until.IsZero() {
		endpoint = c.graphBase + "/me/calendarview"
		params.Set("startDateTime", opts.Since.UTC().Format(time.RFC3339))
		params.Set("endDateTime", opts.Until.UTC().Format(time.RFC3339))
	} else if filter := timeFilter("start/dateTime", opts); filter != "" {
		params.Set("$filter", filter)
	}

	var list graphList[graphEvent]
	if err := c.api.GetJSON(ctx, token, endpoint+"?"+params.Encode(), &list); err != nil {
		return nil, err
	}

	events := make([]domain.CalendarEvent, 0, len(list.Value))
	for _, ev := range list.Value {
		events = append(events, ev.normalize())
	}
	return events, nil
}

// timeFilter builds an OData filter clause for the given property.
func timeFilter(property string, opts domain.FetchOptions) string {
	var clauses []string
	if !opts.Since.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%s ge %s", property, opts.Since.UTC().Format(time.RFC3339)))
	}
	if !opts.Until.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%s le %s", property, opts.Until.UTC().Format(time.RFC3339)))
	}
	return strings.Join(clauses, " and ")
}

func (m graphMessage) normalize() domain.Email {
	email := domain.Email{
		ID:      m.ID,
		Subject: m.Subject,
		Body:    m.BodyPreview,
		IsRead:  m.IsRead,
	}
	if m.From != nil {
		email.From = m.From.EmailAddress.Address
	}
	for _, r := range m.ToRecipients {
		if r.EmailAddress.Address != "" {
			email.To = append(email.To, r.EmailAddress.Address)
		}
	}
	if t, err := time.Parse(time.RFC3339, m.ReceivedDateTime); err == nil {
		email.Date = t
	}
	return email
}

func (e graphEvent) normalize() domain.CalendarEvent {
	event := domain.CalendarEvent{
		ID:          e.ID,
		Title:       e.Subject,
		Description: e.BodyPreview,
		Location:    e.Location.DisplayName,
		Start:       e.Start.time(),
		End:         e.End.time(),
	}
	for _, a := range e.Attendees {
		if a.EmailAddress.Address != "" {
			event.Attendees = append(event.Attendees, a.EmailAddress.Address)
		}
	}
	return event
}

// time parses the zone-less Graph dateTime. Only UTC is requested (no
// Prefer: outlook.timezone header is sent), so the value is taken as UTC.
func (t graphTime) time() time.Time {
	if t.DateTime == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02T15:04:05.9999999", t.DateTime)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
