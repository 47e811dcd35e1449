package domain

import "time"

// The normalized record shapes below are the only data shapes callers
// outside the connector core ever see. Provider-native payloads are mapped
// into them by each connector; missing optional fields default to zero
// values rather than failing the fetch.

// Account is a normalized CRM account/company record.
type Account struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email,omitempty"`
}

// Contact is a normalized person record.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Title     string `json:"title,omitempty"`
	AccountID string `json:"account_id,omitempty"`
}

// ActivityKind is the normalized activity vocabulary. Every provider-native
// activity type maps to exactly one kind; unknown values map to the
// provider's documented default.
type ActivityKind string

const (
	ActivityEmail   ActivityKind = "email"
	ActivityCall    ActivityKind = "call"
	ActivityMeeting ActivityKind = "meeting"
	ActivityTask    ActivityKind = "task"
	ActivityNote    ActivityKind = "note"
)

// Activity is a normalized CRM activity (task, call log, note, ...).
type Activity struct {
	ID          string       `json:"id"`
	Kind        ActivityKind `json:"kind"`
	Subject     string       `json:"subject"`
	Description string       `json:"description,omitempty"`
	Date        time.Time    `json:"date"`
	AccountID   string       `json:"account_id,omitempty"`
	ContactID   string       `json:"contact_id,omitempty"`
}

// Email is a normalized mail message. To preserves the provider's
// recipient order.
type Email struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
	IsRead  bool      `json:"is_read"`
}

// CalendarEvent is a normalized calendar entry.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
	Location    string    `json:"location,omitempty"`
}
