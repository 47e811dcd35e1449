package salesforce

import (
	"fmt"
	"strings"
	"time"

	"github.com/brokerdesk/connect/internal/core/domain"
)

// soqlTime is the datetime literal format SOQL accepts.
const soqlTime = "2006-01-02T15:04:05Z"

// escapeSOQLString escapes a string for use inside a single-quoted SOQL
// literal. Backslash first, then quote, or the quote escape gets doubled.
func escapeSOQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// validateRecordID checks that id looks like a Salesforce record ID: 15 or
// 18 characters, alphanumeric only. IDs are interpolated into queries, so
// anything else is rejected outright rather than escaped.
func validateRecordID(id string) error {
	if len(id) != 15 && len(id) != 18 {
		return fmt.Errorf("%w: record id must be 15 or 18 characters", domain.ErrInvalidInput)
	}
	for _, r := range id {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			return fmt.Errorf("%w: record id contains invalid character %q", domain.ErrInvalidInput, r)
		}
	}
	return nil
}

// accountsQuery builds the Account SOQL query.
func accountsQuery(opts domain.FetchOptions) (string, error) {
	var where []string
	if opts.Query != "" {
		where = append(where, fmt.Sprintf("Name LIKE '%%%s%%'", escapeSOQLString(opts.Query)))
	}
	where = append(where, timeBounds("LastModifiedDate", opts)...)

	return buildQuery("SELECT Id, Name, Website FROM Account", where, "Name", opts.Bound()), nil
}

// contactsQuery builds the Contact SOQL query, optionally scoped to an
// account via ParentID.
func contactsQuery(opts domain.FetchOptions) (string, error) {
	var where []string
	if opts.ParentID != "" {
		if err := validateRecordID(opts.ParentID); err != nil {
			return "", err
		}
		where = append(where, fmt.Sprintf("AccountId = '%s'", opts.ParentID))
	}
	if opts.Query != "" {
		where = append(where, fmt.Sprintf("Name LIKE '%%%s%%'", escapeSOQLString(opts.Query)))
	}
	where = append(where, timeBounds("LastModifiedDate", opts)...)

	return buildQuery("SELECT Id, Name, Email, Phone, Title, AccountId FROM Contact", where, "Name", opts.Bound()), nil
}

// activitiesQuery builds the Task SOQL query. Tasks carry the activity
// history in this org shape: emails, calls, meetings, and plain tasks.
func activitiesQuery(opts domain.FetchOptions) (string, error) {
	var where []string
	if opts.ParentID != "" {
		if err := validateRecordID(opts.ParentID); err != nil {
			return "", err
		}
		where = append(where, fmt.Sprintf("(WhatId = '%s' OR WhoId = '%s')", opts.ParentID, opts.ParentID))
	}
	if opts.Query != "" {
		where = append(where, fmt.Sprintf("Subject LIKE '%%%s%%'", escapeSOQLString(opts.Query)))
	}
	where = append(where, timeBounds("CreatedDate", opts)...)

	return buildQuery("SELECT Id, Subject, Description, TaskSubtype, CreatedDate, WhatId, WhoId FROM Task", where, "CreatedDate DESC", opts.Bound()), nil
}

func timeBounds(field string, opts domain.FetchOptions) []string {
	var clauses []string
	if !opts.Since.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%s >= %s", field, opts.Since.UTC().Format(soqlTime)))
	}
	if !opts.Until.IsZero() {
		clauses = append(clauses, fmt.Sprintf("%s <= %s", field, opts.Until.UTC().Format(soqlTime)))
	}
	return clauses
}

func buildQuery(selectFrom string, where []string, orderBy string, limit int) string {
	var b strings.Builder
	b.WriteString(selectFrom)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(orderBy)
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)
	return b.String()
}

type accountRecord struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Website string `json:"Website"`
}

// normalize maps an Account record. Salesforce accounts are companies, so
// the account name doubles as the company name.
func (r accountRecord) normalize() domain.Account {
	return domain.Account{
		ID:      r.ID,
		Name:    r.Name,
		Company: r.Name,
	}
}

type contactRecord struct {
	ID        string `json:"Id"`
	Name      string `json:"Name"`
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
	Title     string `json:"Title"`
	AccountID string `json:"AccountId"`
}

func (r contactRecord) normalize() domain.Contact {
	return domain.Contact{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Title:     r.Title,
		AccountID: r.AccountID,
	}
}

type taskRecord struct {
	ID          string `json:"Id"`
	Subject     string `json:"Subject"`
	Description string `json:"Description"`
	TaskSubtype string `json:"TaskSubtype"`
	CreatedDate string `json:"CreatedDate"`
	WhatID      string `json:"WhatId"`
	WhoID       string `json:"WhoId"`
}

// taskKinds maps the Task subtype field onto normalized activity kinds.
// Unknown subtypes fall back to ActivityTask in normalize.
var taskKinds = map[string]domain.ActivityKind{
	"Email":     domain.ActivityEmail,
	"ListEmail": domain.ActivityEmail,
	"Call":      domain.ActivityCall,
	"Task":      domain.ActivityTask,
	"Cadence":   domain.ActivityTask,
}

func (r taskRecord) normalize() domain.Activity {
	kind, ok := taskKinds[r.TaskSubtype]
	if !ok {
		kind = domain.ActivityTask
	}

	activity := domain.Activity{
		ID:          r.ID,
		Kind:        kind,
		Subject:     r.Subject,
		Description: r.Description,
		AccountID:   r.WhatID,
		ContactID:   r.WhoID,
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedDate); err == nil {
		activity.Date = t
	}
	return activity
}
