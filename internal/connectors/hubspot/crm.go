package hubspot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// crmList is the collection envelope of the CRM v3 object endpoints: items
// live under the "results" field.
type crmList[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

type companyObject struct {
	ID         string `json:"id"`
	Properties struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
	} `json:"properties"`
}

type contactObject struct {
	ID         string `json:"id"`
	Properties struct {
		FirstName           string `json:"firstname"`
		LastName            string `json:"lastname"`
		Email               string `json:"email"`
		Phone               string `json:"phone"`
		JobTitle            string `json:"jobtitle"`
		AssociatedCompanyID string `json:"associatedcompanyid"`
	} `json:"properties"`
}

// searchRequest is the body of the CRM v3 search endpoint, used when a
// free-text query is given. Listing and searching return the same envelope.
type searchRequest struct {
	Query      string   `json:"query,omitempty"`
	Limit      int      `json:"limit"`
	Properties []string `json:"properties"`
}

var (
	companyProperties = []string{"name", "domain"}
	contactProperties = []string{"firstname", "lastname", "email", "phone", "jobtitle", "associatedcompanyid"}
)

// FetchAccounts lists CRM companies.
func (c *Connector) FetchAccounts(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Account, error) {
	var list crmList[companyObject]
	if err := c.listObjects(ctx, token, "companies", companyProperties, opts, &list); err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(list.Results))
	for _, obj := range list.Results {
		accounts = append(accounts, obj.normalize())
	}
	return accounts, nil
}

// FetchContacts lists CRM contacts.
func (c *Connector) FetchContacts(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Contact, error) {
	var list crmList[contactObject]
	if err := c.listObjects(ctx, token, "contacts", contactProperties, opts, &list); err != nil {
		return nil, err
	}

	contacts := make([]domain.Contact, 0, len(list.Results))
	for _, obj := range list.Results {
		contact := obj.normalize()
		if opts.ParentID != "" && contact.AccountID != opts.ParentID {
			continue
		}
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

// listObjects fetches a CRM object collection. A plain listing when there
// is no query; the search endpoint when there is.
func (c *Connector) listObjects(ctx context.Context, token *domain.Token, objectType string, properties []string, opts domain.FetchOptions, out any) error {
	base := fmt.Sprintf("%s/crm/v3/objects/%s", c.apiBase, objectType)

	if opts.Query != "" {
		body := searchRequest{Query: opts.Query, Limit: opts.Bound(), Properties: properties}
		return c.api.PostJSON(ctx, token, base+"/search", body, out)
	}

	params := url.Values{
		"limit": {strconv.Itoa(opts.Bound())},
	}
	for _, p := range properties {
		params.Add("properties", p)
	}
	return c.api.GetJSON(ctx, token, base+"?"+params.Encode(), out)
}

func (o companyObject) normalize() domain.Account {
	return domain.Account{
		ID:      o.ID,
		Name:    o.Properties.Name,
		Company: o.Properties.Name,
		Email:   o.Properties.Domain,
	}
}

func (o contactObject) normalize() domain.Contact {
	name := o.Properties.FirstName
	if o.Properties.LastName != "" {
		if name != "" {
			name += " "
		}
		name += o.Properties.LastName
	}
	return domain.Contact{
		ID:        o.ID,
		Name:      name,
		Email:     o.Properties.Email,
		Phone:     o.Properties.Phone,
		Title:     o.Properties.JobTitle,
		AccountID: o.Properties.AssociatedCompanyID,
	}
}

// engagement is an item of the engagements listing. The engagement payload
// is nested one level down, next to its associations.
type engagement struct {
	Engagement struct {
		ID          int64  `json:"id"`
		Type        string `json:"type"`
		Timestamp   int64  `json:"timestamp"`
		BodyPreview string `json:"bodyPreview"`
	} `json:"engagement"`
	Associations struct {
		CompanyIDs []int64 `json:"companyIds"`
		ContactIDs []int64 `json:"contactIds"`
	} `json:"associations"`
	Metadata struct {
		Subject string `json:"subject"`
		Title   string `json:"title"`
		Body    string `json:"body"`
	} `json:"metadata"`
}

// engagementKinds maps HubSpot engagement types onto normalized activity
// kinds. Unknown types fall back to ActivityNote in normalize.
var engagementKinds = map[string]domain.ActivityKind{
	"EMAIL":           domain.ActivityEmail,
	"INCOMING_EMAIL":  domain.ActivityEmail,
	"FORWARDED_EMAIL": domain.ActivityEmail,
	"CALL":            domain.ActivityCall,
	"MEETING":         domain.ActivityMeeting,
	"TASK":            domain.ActivityTask,
	"NOTE":            domain.ActivityNote,
}

// FetchActivities lists engagements, newest first.
func (c *Connector) FetchActivities(ctx context.Context, token *domain.Token, opts domain.FetchOptions) ([]domain.Activity, error) {
	params := url.Values{
		"limit": {strconv.Itoa(opts.Bound())},
	}

	var list struct {
		Results []engagement `json:"results"`
		HasMore bool         `json:"hasMore"`
	}
	endpoint := c.apiBase + "/engagements/v1/engagements/paged?" + params.Encode()
	if err := c.api.GetJSON(ctx, token, endpoint, &list); err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, 0, len(list.Results))
	for _, e := range list.Results {
		activity := e.normalize()
		if !opts.Since.IsZero() && activity.Date.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && activity.Date.After(opts.Until) {
			continue
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

func (e engagement) normalize() domain.Activity {
	kind, ok := engagementKinds[e.Engagement.Type]
	if !ok {
		kind = domain.ActivityNote
	}

	subject := e.Metadata.Subject
	if subject == "" {
		subject = e.Metadata.Title
	}

	activity := domain.Activity{
		ID:          strconv.FormatInt(e.Engagement.ID, 10),
		Kind:        kind,
		Subject:     subject,
		Description: firstNonEmpty(e.Metadata.Body, e.Engagement.BodyPreview),
	}
	if e.Engagement.Timestamp > 0 {
		activity.Date = time.UnixMilli(e.Engagement.Timestamp).UTC()
	}
	if len(e.Associations.CompanyIDs) > 0 {
		activity.AccountID = strconv.FormatInt(e.Associations.CompanyIDs[0], 10)
	}
	if len(e.Associations.ContactIDs) > 0 {
		activity.ContactID = strconv.FormatInt(e.Associations.ContactIDs[0], 10)
	}
	return activity
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FetchEmails is not supported by the HubSpot variant.
func (c *Connector) FetchEmails(context.Context, *domain.Token, domain.FetchOptions) ([]domain.Email, error) {
	return nil, domain.ErrUnsupportedOperation
}

// FetchCalendarEvents is not supported by the HubSpot variant.
func (c *Connector) FetchCalendarEvents(context.Context, *domain.Token, domain.FetchOptions) ([]domain.CalendarEvent, error) {
	return nil, domain.ErrUnsupportedOperation
}
