package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brokerdesk/connect/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

The server exposes OAuth connection management and record fetching for all
configured providers. API routes require a JWT bearer token signed with the
configured secret; the token subject identifies the user.

Examples:
  # Serve with the default config
  connectd serve

  # Serve a specific config file
  connectd serve --config /etc/connectd/config.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if connectionService == nil || fetchService == nil {
		return errors.New("services not configured")
	}
	if appConfig.Server.JWTSecret == "" {
		return errors.New("server.jwt_secret is required to serve the API")
	}

	server := httpapi.NewServer(httpapi.Config{
		Addr:        appConfig.Addr(),
		JWTSecret:   appConfig.Server.JWTSecret,
		Connections: connectionService,
		Fetch:       fetchService,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Serving on http://%s\n", appConfig.Addr())
	return server.Run(ctx)
}
