package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driving"
)

// mockConnections is a scriptable ConnectionService for command tests.
type mockConnections struct {
	authURL     string
	statuses    []domain.ProviderStatus
	alive       bool
	err         error
	disconnects []domain.ProviderID
}

var _ driving.ConnectionService = (*mockConnections)(nil)

func (m *mockConnections) AuthURL(_ context.Context, _ string, _ domain.ProviderID) (string, error) {
	return m.authURL, m.err
}

func (m *mockConnections) CompleteAuthorization(context.Context, domain.ProviderID, string, string) error {
	return m.err
}

func (m *mockConnections) Status(context.Context, string) ([]domain.ProviderStatus, error) {
	return m.statuses, m.err
}

func (m *mockConnections) TestConnection(context.Context, string, domain.ProviderID) bool {
	return m.alive
}

func (m *mockConnections) Disconnect(_ context.Context, _ string, provider domain.ProviderID) error {
	m.disconnects = append(m.disconnects, provider)
	return m.err
}

// mockFetch satisfies FetchService so initApp skips bootstrap in tests.
type mockFetch struct{}

var _ driving.FetchService = (*mockFetch)(nil)

func (mockFetch) Supports(domain.ProviderID, domain.Capability) bool { return false }
func (mockFetch) Accounts(context.Context, string, domain.ProviderID, domain.FetchOptions) ([]domain.Account, error) {
	return nil, errors.New("not implemented")
}
func (mockFetch) Contacts(context.Context, string, domain.ProviderID, domain.FetchOptions) ([]domain.Contact, error) {
	return nil, errors.New("not implemented")
}
func (mockFetch) Activities(context.Context, string, domain.ProviderID, domain.FetchOptions) ([]domain.Activity, error) {
	return nil, errors.New("not implemented")
}
func (mockFetch) Emails(context.Context, string, domain.ProviderID, domain.FetchOptions) ([]domain.Email, error) {
	return nil, errors.New("not implemented")
}
func (mockFetch) CalendarEvents(context.Context, string, domain.ProviderID, domain.FetchOptions) ([]domain.CalendarEvent, error) {
	return nil, errors.New("not implemented")
}

// runCommand executes the root command with injected services and returns
// its combined output.
func runCommand(t *testing.T, conns *mockConnections, args ...string) (string, error) {
	t.Helper()

	oldConns, oldFetch := connectionService, fetchService
	connectionService = conns
	fetchService = mockFetch{}
	t.Cleanup(func() {
		connectionService = oldConns
		fetchService = oldFetch
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags clears flag values set by a previous Execute so required-flag
// checks see a fresh state on the shared package-level commands.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		f.Value.Set(f.DefValue) //nolint:errcheck
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
