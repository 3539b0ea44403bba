package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google",
	Long: `Opens your browser to sign in with Google and grants Itsunani
access to your Google Calendar. Tokens are stored locally.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if exchanger == nil || newBrowser == nil {
		return errors.New("auth services not configured")
	}

	browser, cleanup, err := newBrowser()
	if err != nil {
		return fmt.Errorf("failed to start sign-in: %w", err)
	}
	defer cleanup()

	cmd.Println("Opening your browser to sign in...")

	outcome, err := exchanger.SignIn(cmd.Context(), browser)
	if err != nil {
		if errors.Is(err, domain.ErrSignInCancelled) {
			cmd.Println("Sign-in cancelled.")
			return nil
		}
		return fmt.Errorf("sign-in failed: %w", err)
	}

	cmd.Printf("Signed in as %s\n", outcome.Session.Email)
	switch {
	case !outcome.ProviderTokenPresent:
		cmd.Println("Warning: the sign-in granted no calendar access; saving events will require signing in again.")
	case !outcome.ProviderTokenStored:
		cmd.Println("Warning: calendar access token could not be stored; saving events may require signing in again.")
	}
	return nil
}
