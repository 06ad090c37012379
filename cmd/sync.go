package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <session-id>",
	Short: "Deliver messages queued while offline",
	Long: `Appends locally queued messages to the end of the session's conversation
history and persists them. The queue is cleared only once the persist
succeeds; on failure it is kept for a later retry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()
		cache := openCache(cfg)

		queued, err := cache.OfflineMessages(args[0])
		if err != nil {
			return err
		}
		if len(queued) == 0 {
			fmt.Println("Nothing queued")
			return nil
		}

		state, err := cache.SyncOfflineMessages(args[0], manager)
		if err != nil {
			return err
		}

		fmt.Printf("Delivered %d message(s); session now has %d\n", len(queued), len(state.Messages))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
