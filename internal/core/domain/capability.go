package domain

import "strings"

// Capability declares which fetch operations a provider connector supports.
// This is a bitfield: the variant set is closed, so "unsupported" is a
// first-class, introspectable outcome checked by the dispatcher before
// invocation rather than an exception caught afterwards.
type Capability uint8

const (
	// CapNone supports no fetch operations.
	CapNone Capability = 0
	// CapAccounts supports fetching accounts/companies.
	CapAccounts Capability = 1 << 0
	// CapContacts supports fetching contacts.
	CapContacts Capability = 1 << 1
	// CapActivities supports fetching activities.
	CapActivities Capability = 1 << 2
	// CapEmails supports fetching mail messages.
	CapEmails Capability = 1 << 3
	// CapCalendar supports fetching calendar events.
	CapCalendar Capability = 1 << 4
)

// Supports returns true if every capability in want is declared.
func (c Capability) Supports(want Capability) bool {
	return c&want == want
}

// String returns a comma-separated list of declared capabilities.
func (c Capability) String() string {
	if c == CapNone {
		return "none"
	}
	var parts []string
	if c.Supports(CapAccounts) {
		parts = append(parts, "accounts")
	}
	if c.Supports(CapContacts) {
		parts = append(parts, "contacts")
	}
	if c.Supports(CapActivities) {
		parts = append(parts, "activities")
	}
	if c.Supports(CapEmails) {
		parts = append(parts, "emails")
	}
	if c.Supports(CapCalendar) {
		parts = append(parts, "calendar")
	}
	return strings.Join(parts, ",")
}
