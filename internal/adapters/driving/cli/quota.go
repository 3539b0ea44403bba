package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show remaining trial events",
	RunE:  runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("extraction service not configured")
	}

	if err := waitSignedIn(cmd.Context()); err != nil {
		return err
	}

	remaining, err := orchestrator.RefreshQuota(cmd.Context())
	if err != nil {
		// Fall back to the last value observed during extraction
		if cached, ok := orchestrator.RemainingQuota(); ok {
			cmd.Printf("Trial events remaining: %d (cached)\n", cached)
			return nil
		}
		return fmt.Errorf("failed to fetch quota: %w", err)
	}

	cmd.Printf("Trial events remaining: %d\n", remaining)
	return nil
}
