package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new specification session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := manager.CreateSession()
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		if err := openCache(cfg).SaveMirror(state); err != nil {
			// The session exists either way; the mirror is best-effort.
			fmt.Printf("Warning: failed to seed cache mirror: %v\n", err)
		}

		fmt.Println(state.Session.ID)
		fmt.Printf("Start chatting with: specsmith chat %s\n", state.Session.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
