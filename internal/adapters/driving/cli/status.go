package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show provider connection status for a user",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("user", "", "user id to report on (required)")
	statusCmd.MarkFlagRequired("user") //nolint:errcheck
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if connectionService == nil {
		return errors.New("connection service not configured")
	}

	user, err := cmd.Flags().GetString("user")
	if err != nil {
		return fmt.Errorf("getting user flag: %w", err)
	}

	statuses, err := connectionService.Status(context.Background(), user)
	if err != nil {
		return fmt.Errorf("fetching status: %w", err)
	}

	cmd.Printf("Provider connections for %s:\n\n", user)
	for _, s := range statuses {
		state := "not configured"
		switch {
		case s.Connected:
			state = "connected"
		case s.Configured:
			state = "configured, not connected"
		}
		cmd.Printf("  %-12s %s\n", s.Provider, state)
	}

	return nil
}
