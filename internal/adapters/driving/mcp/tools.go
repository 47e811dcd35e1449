package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// FetchInput is the shared input schema for the fetch tools.
type FetchInput struct {
	Provider string `json:"provider" jsonschema:"the provider to fetch from: salesforce, google, outlook or hubspot"`
	Query    string `json:"query,omitempty" jsonschema:"free-text filter applied by the provider"`
	Since    string `json:"since,omitempty" jsonschema:"only records on or after this RFC 3339 timestamp"`
	Until    string `json:"until,omitempty" jsonschema:"only records before this RFC 3339 timestamp"`
	ParentID string `json:"parent_id,omitempty" jsonschema:"scope results to this parent record id, e.g. an account id"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of records to return (default 50)"`
}

// AccountsOutput is the output schema for the fetch_accounts tool.
type AccountsOutput struct {
	Accounts []domain.Account `json:"accounts"`
	Count    int              `json:"count"`
	Failed   int              `json:"failed,omitempty"`
}

// ContactsOutput is the output schema for the fetch_contacts tool.
type ContactsOutput struct {
	Contacts []domain.Contact `json:"contacts"`
	Count    int              `json:"count"`
	Failed   int              `json:"failed,omitempty"`
}

// ActivitiesOutput is the output schema for the fetch_activities tool.
type ActivitiesOutput struct {
	Activities []domain.Activity `json:"activities"`
	Count      int               `json:"count"`
	Failed     int               `json:"failed,omitempty"`
}

// EmailsOutput is the output schema for the fetch_emails tool.
type EmailsOutput struct {
	Emails []domain.Email `json:"emails"`
	Count  int            `json:"count"`
	Failed int            `json:"failed,omitempty"`
}

// EventsOutput is the output schema for the fetch_calendar_events tool.
type EventsOutput struct {
	Events []domain.CalendarEvent `json:"events"`
	Count  int                    `json:"count"`
	Failed int                    `json:"failed,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_accounts",
		Description: "Fetch accounts (companies) from a connected provider",
	}, s.handleFetchAccounts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_contacts",
		Description: "Fetch contacts from a connected provider",
	}, s.handleFetchContacts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_activities",
		Description: "Fetch activities (calls, tasks, notes) from a connected provider",
	}, s.handleFetchActivities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_emails",
		Description: "Fetch emails from a connected provider",
	}, s.handleFetchEmails)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_calendar_events",
		Description: "Fetch calendar events from a connected provider",
	}, s.handleFetchCalendarEvents)
}

// fetchArgs resolves the provider and fetch options from tool input.
func (s *Server) fetchArgs(input FetchInput) (domain.ProviderID, domain.FetchOptions, error) {
	provider, err := domain.ParseProviderID(input.Provider)
	if err != nil {
		return "", domain.FetchOptions{}, err
	}

	opts := domain.FetchOptions{
		Query:    input.Query,
		ParentID: input.ParentID,
		Limit:    input.Limit,
	}

	for _, bound := range []struct {
		value string
		dst   *time.Time
		name  string
	}{
		{input.Since, &opts.Since, "since"},
		{input.Until, &opts.Until, "until"},
	} {
		if bound.value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, bound.value)
		if err != nil {
			return "", domain.FetchOptions{}, fmt.Errorf("%w: %s must be RFC 3339", domain.ErrInvalidInput, bound.name)
		}
		*bound.dst = t
	}

	return provider, opts, nil
}

// failedCount reports how many items a partial failure dropped, and whether
// the fetch as a whole still succeeded.
func failedCount(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if partial, ok := domain.AsPartial(err); ok {
		return partial.Failed, nil
	}
	return 0, err
}

func (s *Server) handleFetchAccounts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, AccountsOutput, error) {
	provider, opts, err := s.fetchArgs(input)
	if err != nil {
		return nil, AccountsOutput{}, err
	}

	accounts, err := s.ports.Fetch.Accounts(ctx, s.userID, provider, opts)
	failed, err := failedCount(err)
	if err != nil {
		return nil, AccountsOutput{}, err
	}

	return nil, AccountsOutput{Accounts: accounts, Count: len(accounts), Failed: failed}, nil
}

func (s *Server) handleFetchContacts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, ContactsOutput, error) {
	provider, opts, err := s.fetchArgs(input)
	if err != nil {
		return nil, ContactsOutput{}, err
	}

	contacts, err := s.ports.Fetch.Contacts(ctx, s.userID, provider, opts)
	failed, err := failedCount(err)
	if err != nil {
		return nil, ContactsOutput{}, err
	}

	return nil, ContactsOutput{Contacts: contacts, Count: len(contacts), Failed: failed}, nil
}

func (s *Server) handleFetchActivities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, ActivitiesOutput, error) {
	provider, opts, err := s.fetchArgs(input)
	if err != nil {
		return nil, ActivitiesOutput{}, err
	}

	activities, err := s.ports.Fetch.Activities(ctx, s.userID, provider, opts)
	failed, err := failedCount(err)
	if err != nil {
		return nil, ActivitiesOutput{}, err
	}

	return nil, ActivitiesOutput{Activities: activities, Count: len(activities), Failed: failed}, nil
}

func (s *Server) handleFetchEmails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, EmailsOutput, error) {
	provider, opts, err := s.fetchArgs(input)
	if err != nil {
		return nil, EmailsOutput{}, err
	}

	emails, err := s.ports.Fetch.Emails(ctx, s.userID, provider, opts)
	failed, err := failedCount(err)
	if err != nil {
		return nil, EmailsOutput{}, err
	}

	return nil, EmailsOutput{Emails: emails, Count: len(emails), Failed: failed}, nil
}

func (s *Server) handleFetchCalendarEvents(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, EventsOutput, error) {
	provider, opts, err := s.fetchArgs(input)
	if err != nil {
		return nil, EventsOutput{}, err
	}

	events, err := s.ports.Fetch.CalendarEvents(ctx, s.userID, provider, opts)
	failed, err := failedCount(err)
	if err != nil {
		return nil, EventsOutput{}, err
	}

	return nil, EventsOutput{Events: events, Count: len(events), Failed: failed}, nil
}
