package cmd

import (
	"errors"
	"fmt"

	"github.com/specsmith/specsmith/internal"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <token>",
	Short: "Resume a session from a magic link token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := manager.RestoreSessionFromMagicLink(args[0])
		if err != nil {
			if errors.Is(err, internal.ErrInvalidToken) {
				return fmt.Errorf("invalid or expired token")
			}
			return err
		}

		if err := openCache(cfg).SaveMirror(state); err != nil {
			internal.LogWarn("Failed to update cache mirror: %v", err)
		}

		displayState(state)
		fmt.Printf("Continue with: specsmith chat %s\n", state.Session.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
