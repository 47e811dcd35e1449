// Package cli implements the connectd command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brokerdesk/connect/internal/adapters/driven/config/file"
	"github.com/brokerdesk/connect/internal/adapters/driven/storage/memory"
	"github.com/brokerdesk/connect/internal/adapters/driven/storage/sqlite"
	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/core/ports/driven"
	"github.com/brokerdesk/connect/internal/core/ports/driving"
	"github.com/brokerdesk/connect/internal/core/services"
	"github.com/brokerdesk/connect/internal/logger"
)

const version = "0.1.0"

// Services wired by initApp, replaceable in tests.
var (
	appConfig         *file.Config
	connectionService driving.ConnectionService
	fetchService      driving.FetchService

	// closeStore releases the storage backend after the command finishes.
	closeStore func() error
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "connectd",
	Short: "CRM provider connector service",
	Long: `connectd connects a broker's CRM to external providers: Salesforce,
Google Workspace, Microsoft 365 (Outlook) and HubSpot. It handles the OAuth
flows, keeps tokens refreshed, and serves normalized accounts, contacts,
activities, emails and calendar events over an HTTP API and MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initApp(cmd)
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if closeStore != nil {
			return closeStore()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ~/.connectd/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initApp loads configuration and wires the service graph. It is a no-op
// when a test has already injected services.
func initApp(_ *cobra.Command) error {
	if connectionService != nil && fetchService != nil {
		return nil
	}

	path := cfgPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".connectd", "config.toml")
	}

	cfg, err := file.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	appConfig = cfg

	if verbose || cfg.Server.Verbose {
		logger.SetVerbose(true)
	}

	logger.Section("configuration")
	for provider, cred := range cfg.Credentials() {
		if cred.Configured() {
			logger.Debug("%s credential loaded", provider)
		}
	}

	tokens, conns, closer, err := buildStores(cfg)
	if err != nil {
		return err
	}
	closeStore = closer

	registry := services.NewRegistry(services.RegistryConfig{
		Credentials:        cfg.Credentials(),
		SalesforceLoginURL: cfg.Provider(domain.ProviderSalesforce).LoginURL,
		SalesforceAPIBase:  cfg.Provider(domain.ProviderSalesforce).APIBase,
		OutlookTenant:      cfg.Provider(domain.ProviderOutlook).Tenant,
	})

	dispatcher := services.NewDispatcher(registry, tokens, conns)
	connectionService = dispatcher
	fetchService = dispatcher

	return nil
}

func buildStores(cfg *file.Config) (driven.TokenStore, driven.ConnectionStore, func() error, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		store, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("sqlite store at %s", store.Path())
		return store.TokenStore(), store.ConnectionStore(), store.Close, nil
	case "memory", "":
		return memory.NewTokenStore(), memory.NewConnectionStore(), nil, nil
	default:
		return nil, nil, nil, errors.New("unknown storage backend: " + cfg.Storage.Backend)
	}
}
