package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerdesk/connect/internal/core/domain"
)

var connectCmd = &cobra.Command{
	Use:   "connect [provider]",
	Short: "Print the authorization URL for a provider",
	Long: `Print the URL a user must visit to authorize a provider connection.

The user completes the provider's consent screen in a browser; the provider
then redirects to the configured callback, which stores the tokens.

Examples:
  connectd connect salesforce --user broker-7
  connectd connect google --user broker-7`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect [provider]",
	Short: "Disconnect a provider, revoking its tokens",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisconnect,
}

var testCmd = &cobra.Command{
	Use:   "test [provider]",
	Short: "Probe a provider connection with a live API call",
	Args:  cobra.ExactArgs(1),
	RunE:  runTest,
}

func init() {
	for _, c := range []*cobra.Command{connectCmd, disconnectCmd, testCmd} {
		c.Flags().String("user", "", "user id the connection belongs to (required)")
		c.MarkFlagRequired("user") //nolint:errcheck
		rootCmd.AddCommand(c)
	}
}

func connectionArgs(cmd *cobra.Command, args []string) (string, domain.ProviderID, error) {
	if connectionService == nil {
		return "", "", errors.New("connection service not configured")
	}
	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return "", "", fmt.Errorf("getting user flag: %w", err)
	}
	provider, err := domain.ParseProviderID(args[0])
	if err != nil {
		return "", "", err
	}
	return user, provider, nil
}

func runConnect(cmd *cobra.Command, args []string) error {
	user, provider, err := connectionArgs(cmd, args)
	if err != nil {
		return err
	}

	authURL, err := connectionService.AuthURL(context.Background(), user, provider)
	if err != nil {
		return fmt.Errorf("building authorization URL: %w", err)
	}

	cmd.Printf("Visit this URL to authorize %s:\n\n  %s\n", provider, authURL)
	return nil
}

func runDisconnect(cmd *cobra.Command, args []string) error {
	user, provider, err := connectionArgs(cmd, args)
	if err != nil {
		return err
	}

	if err := connectionService.Disconnect(context.Background(), user, provider); err != nil {
		return fmt.Errorf("disconnecting %s: %w", provider, err)
	}

	cmd.Printf("Disconnected %s for %s\n", provider, user)
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	user, provider, err := connectionArgs(cmd, args)
	if err != nil {
		return err
	}

	if connectionService.TestConnection(context.Background(), user, provider) {
		cmd.Printf("%s connection is alive\n", provider)
		return nil
	}

	cmd.Printf("%s connection is not working\n", provider)
	return errors.New("connection test failed")
}
