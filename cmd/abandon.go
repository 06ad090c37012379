package cmd

import (
	"errors"
	"fmt"

	"github.com/specsmith/specsmith/internal"
	"github.com/spf13/cobra"
)

var abandonCmd = &cobra.Command{
	Use:   "abandon <session-id>",
	Short: "Mark a session as abandoned",
	Long: `Marks the session abandoned. This is a label only: the session and its
specification history remain fully readable, and there is no way back to
active.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := manager.AbandonSession(args[0]); err != nil {
			if errors.Is(err, internal.ErrSessionNotFound) {
				return fmt.Errorf("session %s not found", args[0])
			}
			return err
		}

		fmt.Printf("Session %s abandoned\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(abandonCmd)
}
