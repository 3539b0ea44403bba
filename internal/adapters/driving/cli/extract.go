package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
)

var (
	extractText  string
	extractImage string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract an event and save it to your calendar",
	Long: `Extracts event details from pasted text or a screenshot and saves
the event to your Google Calendar in one step.

Provide exactly one of --text or --image.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractText, "text", "t", "", "text to extract an event from")
	extractCmd.Flags().StringVarP(&extractImage, "image", "i", "", "path to a screenshot to extract an event from")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if orchestrator == nil {
		return errors.New("extraction service not configured")
	}

	input := domain.ExtractionInput{Text: extractText}
	if extractImage != "" {
		data, err := os.ReadFile(extractImage)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		input.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	}

	if err := waitSignedIn(cmd.Context()); err != nil {
		return err
	}

	outcome, err := orchestrator.ExtractAndSave(cmd.Context(), input)
	if err != nil {
		return reportSaveError(cmd, err)
	}

	printSaved(cmd, outcome)
	return nil
}

// waitSignedIn blocks until the session state is known, then checks it.
func waitSignedIn(ctx context.Context) error {
	if monitor == nil {
		return errors.New("session monitor not configured")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := monitor.WaitReady(waitCtx); err != nil {
		return fmt.Errorf("could not determine sign-in state: %w", err)
	}

	if !monitor.Current().Present() {
		return errors.New("not signed in; run 'itsunani login' first")
	}
	return nil
}

// reportSaveError translates save-path failures into user guidance. A
// pending extraction survives these failures, so recovery ends with
// 'itsunani retry' instead of paying for extraction again.
func reportSaveError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return err
	case domain.NeedsReauth(err):
		cmd.Println("Your calendar access has expired.")
		cmd.Println("Run 'itsunani logout', then 'itsunani login', then 'itsunani retry' to finish saving.")
		return err
	case errors.Is(err, domain.ErrSaveFailed):
		cmd.Println("The event was extracted but could not be saved. Run 'itsunani retry' to try again.")
		return err
	default:
		return err
	}
}

func printSaved(cmd *cobra.Command, outcome *driving.SaveOutcome) {
	cmd.Printf("Saved: %s\n", outcome.Event.Title)
	cmd.Printf("  Starts: %s\n", outcome.Event.StartDate)
	if outcome.Event.EndDate != "" {
		cmd.Printf("  Ends:   %s\n", outcome.Event.EndDate)
	}
	if outcome.Event.Location != "" {
		cmd.Printf("  Where:  %s\n", outcome.Event.Location)
	}
	cmd.Printf("Trial events remaining: %d\n", outcome.RemainingQuota)
}
