package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry saving the last extracted event",
	Long: `Saves the most recently extracted event without extracting again.
Useful after signing in again when a save failed with expired
calendar access.`,
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("extraction service not configured")
	}

	if err := waitSignedIn(cmd.Context()); err != nil {
		return err
	}

	outcome, err := orchestrator.RetrySave(cmd.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoPendingSave) {
			cmd.Println("Nothing to retry.")
			return nil
		}
		return reportSaveError(cmd, err)
	}

	printSaved(cmd, outcome)
	return nil
}
