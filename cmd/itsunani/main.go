package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itsunani-labs/itsunani-cli/internal/adapters/driven/api"
	configfile "github.com/itsunani-labs/itsunani-cli/internal/adapters/driven/config/file"
	"github.com/itsunani-labs/itsunani-cli/internal/adapters/driven/supabase"
	"github.com/itsunani-labs/itsunani-cli/internal/adapters/driven/vault/sqlite"
	"github.com/itsunani-labs/itsunani-cli/internal/adapters/driving/cli"
	"github.com/itsunani-labs/itsunani-cli/internal/adapters/driving/redirect"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	vault, err := sqlite.NewVault(cfg.GetString(driven.ConfigKeyDataDir))
	if err != nil {
		return fmt.Errorf("failed to open credential vault: %w", err)
	}
	defer vault.Close()

	supabaseURL := cfg.GetString(driven.ConfigKeySupabaseURL)
	supabaseKey := cfg.GetString(driven.ConfigKeySupabaseKey)
	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("supabase_url and supabase_publishable_key must be set in %s", cfg.Path())
	}
	identity := supabase.NewClient(supabaseURL, supabaseKey, vault)

	apiURL := cfg.GetString(driven.ConfigKeyAPIURL)
	if apiURL == "" {
		apiURL = configfile.DefaultAPIURL
	}
	apiClient := api.NewClient(apiURL)

	monitor := services.NewSessionReconciler(identity)
	monitor.Start(ctx)
	defer monitor.Close()

	exchanger := services.NewRedirectExchanger(identity, vault)
	orchestrator := services.NewExtractionOrchestrator(apiClient, vault, identity, monitor)
	accounts := services.NewAccountManager(identity, vault, apiClient, monitor)

	scheme := cfg.GetString(driven.ConfigKeyRedirectScheme)
	if scheme == "" {
		scheme = configfile.DefaultRedirectScheme
	}
	portStart := cfg.GetInt(driven.ConfigKeyCallbackPortStart)
	portEnd := cfg.GetInt(driven.ConfigKeyCallbackPortEnd)
	if portStart == 0 {
		portStart = configfile.DefaultCallbackPortStart
	}
	if portEnd == 0 {
		portEnd = configfile.DefaultCallbackPortEnd
	}

	cli.SetServices(cli.Services{
		Exchanger:    exchanger,
		Monitor:      monitor,
		Orchestrator: orchestrator,
		Accounts:     accounts,
		NewBrowser: func() (driven.AuthBrowser, func(), error) {
			port, err := redirect.FindAvailablePort(portStart, portEnd)
			if err != nil {
				return nil, nil, err
			}
			catcher := redirect.NewCatcher(port, scheme)
			catcher.OnRedirect = func(uri string) {
				// Deep-link delivery path; the exchanger deduplicates
				// against the browser return value.
				_, _ = exchanger.HandleRedirect(ctx, uri)
			}
			if err := catcher.Start(); err != nil {
				return nil, nil, err
			}
			stop := func() { _ = catcher.Stop() }
			return redirect.NewBrowser(catcher), stop, nil
		},
	})

	return cli.Execute(ctx)
}
