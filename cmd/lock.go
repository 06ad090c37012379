package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock <session-id> <section> [summary...]",
	Short: "Mark a specification section as decided",
	Long: `Records that a section has been discussed and decided, so the conversation
should not revisit it. Advisory only; nothing prevents later edits.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		summary := strings.Join(args[2:], " ")
		if err := manager.LockSection(args[0], args[1], summary); err != nil {
			return fmt.Errorf("failed to lock section: %w", err)
		}

		fmt.Printf("Locked section %q for session %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lockCmd)
}
