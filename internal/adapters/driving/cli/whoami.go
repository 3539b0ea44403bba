package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if monitor == nil {
		return errors.New("session monitor not configured")
	}

	waitCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	if err := monitor.WaitReady(waitCtx); err != nil {
		return fmt.Errorf("could not determine sign-in state: %w", err)
	}

	state := monitor.Current()
	switch state.Status {
	case domain.AuthPresent:
		cmd.Printf("Signed in as %s (%s)\n", state.Email, state.UserID)
	case domain.AuthAbsent:
		cmd.Println("Not signed in.")
	default:
		cmd.Println("Sign-in state unknown.")
	}
	return nil
}
