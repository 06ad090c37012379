package cmd

import (
	"errors"
	"fmt"

	"github.com/specsmith/specsmith/internal"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link <session-id>",
	Short: "Generate a magic link token for resuming the session",
	Long: `Mints a new shareable token for the session. Anyone holding the token can
resume the session with 'specsmith resume <token>'. Generating a new token
invalidates the previous one; tokens do not expire otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		token, err := manager.GenerateMagicLink(args[0])
		if err != nil {
			if errors.Is(err, internal.ErrSessionNotFound) {
				return fmt.Errorf("session %s not found", args[0])
			}
			return fmt.Errorf("failed to generate magic link: %w", err)
		}

		fmt.Println(token)
		fmt.Printf("Resume with: specsmith resume %s\n", token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(linkCmd)
}
