package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specsmith/specsmith/internal"
	"github.com/spf13/cobra"
)

var showMessages bool

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's specification and completeness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := manager.GetSession(args[0])
		if err != nil {
			if errors.Is(err, internal.ErrSessionNotFound) {
				return fmt.Errorf("session %s not found", args[0])
			}
			return err
		}

		displayState(state)

		if showMessages {
			fmt.Println(titleStyle.Render("Conversation"))
			for _, msg := range state.Messages {
				fmt.Printf("%s %s\n", promptStyle.Render("["+msg.Role+"]"), msg.Content)
			}
			fmt.Println()
		}

		locked, err := manager.LockedSections(args[0])
		if err == nil && len(locked) > 0 {
			fmt.Println(titleStyle.Render("Locked sections"))
			for _, section := range locked {
				fmt.Printf("  %s: %s\n", section.Name, section.Summary)
			}
		}
		return nil
	},
}

func displayState(state *internal.SessionState) {
	spec := state.Spec

	fmt.Println(headerStyle.Render(fmt.Sprintf("Session %s", state.Session.ID)))
	fmt.Printf("Status: %s   Messages: %d   Specification: v%d\n\n",
		state.Session.Status, len(state.Messages), spec.Version)

	if spec.Summary.Overview != "" {
		fmt.Println(titleStyle.Render("Overview"))
		fmt.Println(spec.Summary.Overview)
		fmt.Println()
	}
	if spec.Summary.TargetUsers != "" {
		fmt.Println(titleStyle.Render("Target users"))
		fmt.Println(spec.Summary.TargetUsers)
		fmt.Println()
	}
	showList("Key features", spec.Summary.KeyFeatures)
	showList("Flows", spec.Summary.Flows)
	showList("Rules and constraints", spec.Summary.RulesAndConstraints)
	showList("Non-functional", spec.Summary.NonFunctional)

	if len(spec.PRD.Requirements) > 0 {
		fmt.Println(titleStyle.Render("Requirements"))
		for _, req := range spec.PRD.Requirements {
			fmt.Printf("  %s [%s] %s\n", req.ID, req.Priority, req.UserStory)
		}
		fmt.Println()
	}

	printCompleteness(state.Completeness)
	fmt.Println()
}

func showList(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println(titleStyle.Render(heading))
	for _, item := range items {
		fmt.Println("  • " + strings.TrimSpace(item))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showMessages, "messages", false, "Include the conversation transcript")
}
