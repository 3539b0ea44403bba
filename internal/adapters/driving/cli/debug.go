package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:    "debug",
	Short:  "Dump server-side diagnostic state for the signed-in user",
	Hidden: true,
	RunE:   runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, _ []string) error {
	if accounts == nil {
		return errors.New("account service not configured")
	}

	if err := waitSignedIn(cmd.Context()); err != nil {
		return err
	}

	raw, err := accounts.DebugUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("debug lookup failed: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		cmd.Println(string(raw))
		return nil
	}
	cmd.Println(buf.String())
	return nil
}
