// Package cli implements the command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services carries the wired core services. The composition root builds
// them and hands them to the CLI before Execute.
type Services struct {
	Exchanger    driving.TokenExchanger
	Monitor      driving.SessionMonitor
	Orchestrator driving.EventOrchestrator
	Accounts     driving.AccountService

	// NewBrowser builds a fresh auth browser for an interactive sign-in.
	// Each sign-in gets its own loopback catcher.
	NewBrowser func() (driven.AuthBrowser, func(), error)
}

var (
	exchanger    driving.TokenExchanger
	monitor      driving.SessionMonitor
	orchestrator driving.EventOrchestrator
	accounts     driving.AccountService
	newBrowser   func() (driven.AuthBrowser, func(), error)
)

// SetServices wires the core services into the CLI commands.
func SetServices(s Services) {
	exchanger = s.Exchanger
	monitor = s.Monitor
	orchestrator = s.Orchestrator
	accounts = s.Accounts
	newBrowser = s.NewBrowser
}

var rootCmd = &cobra.Command{
	Use:   "itsunani",
	Short: "Turn text and screenshots into calendar events",
	Long: `Itsunani extracts event details from pasted text or screenshots
and saves them to your Google Calendar.

Sign in once with 'itsunani login', then run 'itsunani extract' with
--text or --image.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
