package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/specsmith/specsmith/internal"
	"github.com/specsmith/specsmith/internal/llm"
	"github.com/spf13/cobra"
)

var chatFinalize bool

var (
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	missingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	readyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	offlineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

var chatCmd = &cobra.Command{
	Use:   "chat <session-id>",
	Short: "Chat with the assistant to build the specification",
	Long: `Interactive conversation loop. Each message you type is appended to the
session and synthesized into an updated specification. When the provider is
unreachable your messages are queued locally and delivered by 'sync'.

Use --finalize to run a single polishing pass instead of a conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		cfg, manager, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()
		cache := openCache(cfg)

		state, err := manager.GetSession(sessionID)
		if err != nil {
			if errors.Is(err, internal.ErrSessionNotFound) {
				return fmt.Errorf("session %s not found", sessionID)
			}
			return err
		}

		synth, err := buildSynthesizer(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if chatFinalize {
			result, err := synth.Synthesize(ctx, internal.FinalizeInput(state.Spec))
			if err != nil {
				return fmt.Errorf("finalize failed: %w", err)
			}
			state.Spec = result.Spec
			state.Completeness = internal.EvaluateCompleteness(result.MissingSections, time.Now())
			if err := manager.SaveSessionState(sessionID, state); err != nil {
				return err
			}
			if err := cache.SaveMirror(state); err != nil {
				internal.LogWarn("Failed to update cache mirror: %v", err)
			}
			fmt.Println(readyStyle.Render(fmt.Sprintf("Specification polished (v%d).", state.Spec.Version)))
			return nil
		}

		fmt.Println(promptStyle.Render("Describe your product. Type 'exit' to stop."))

		// Messages appended since the last successful synthesis. The very
		// first synthesis for a session sees the full history.
		var pending []internal.Message
		firstRun := state.Spec.Version == 0
		if firstRun {
			pending = append(pending, state.Messages...)
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(promptStyle.Render("> "))
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				break
			}

			msg := internal.Message{
				ID:        uuid.NewString(),
				Role:      internal.RoleUser,
				Content:   line,
				Timestamp: time.Now(),
			}
			state.Messages = append(state.Messages, msg)
			pending = append(pending, msg)

			result, err := synth.Synthesize(ctx, internal.UpdateInput(state.Spec, pending, firstRun))
			if err != nil {
				// Gateway is down: keep the message locally and move on.
				if qErr := cache.QueueOfflineMessage(sessionID, msg); qErr != nil {
					internal.LogError("Failed to queue offline message: %v", qErr)
				}
				manager.PreserveErrorState(sessionID, err, line, nil)
				fmt.Println(offlineStyle.Render("Provider unreachable; message queued for 'specsmith sync'."))
				continue
			}
			firstRun = false
			pending = nil

			state.Spec = result.Spec
			state.Completeness = internal.EvaluateCompleteness(result.MissingSections, time.Now())

			ack := internal.Message{
				ID:        uuid.NewString(),
				Role:      internal.RoleAssistant,
				Content:   ackContent(state),
				Timestamp: time.Now(),
			}
			state.Messages = append(state.Messages, ack)

			if err := manager.SaveSessionState(sessionID, state); err != nil {
				manager.PreserveErrorState(sessionID, err, line, state)
				return err
			}
			if err := cache.SaveMirror(state); err != nil {
				internal.LogWarn("Failed to update cache mirror: %v", err)
			}

			fmt.Println(ack.Content)
			printCompleteness(state.Completeness)
		}

		return scanner.Err()
	},
}

// buildSynthesizer assembles the gateway stack: provider client, retry
// wrapper, model router.
func buildSynthesizer(cfg *internal.Config) (*internal.Synthesizer, error) {
	client, err := llm.New(llm.Config{
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Models.Default,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client (set SPECSMITH_API_KEY?): %w", err)
	}
	client = llm.NewRetryClient(client, llm.RetryConfig{})

	router := llm.NewRouter(modelProfiles(cfg), llm.TierDefault)
	return internal.NewSynthesizer(client, router), nil
}

func modelProfiles(cfg *internal.Config) []llm.ModelProfile {
	var profiles []llm.ModelProfile
	if cfg.Models.Small != "" {
		profiles = append(profiles, llm.ModelProfile{Provider: "openai", Model: cfg.Models.Small, Tier: llm.TierSmall})
	}
	if cfg.Models.Default != "" {
		profiles = append(profiles, llm.ModelProfile{Provider: "openai", Model: cfg.Models.Default, Tier: llm.TierDefault})
	}
	if cfg.Models.Strong != "" {
		profiles = append(profiles, llm.ModelProfile{Provider: "openai", Model: cfg.Models.Strong, Tier: llm.TierStrong})
	}
	return profiles
}

func ackContent(state *internal.SessionState) string {
	if state.Completeness.ReadyForHandoff {
		return fmt.Sprintf("Specification updated to v%d. All sections are covered; ready for handoff.", state.Spec.Version)
	}
	return fmt.Sprintf("Specification updated to v%d. Still open: %s.",
		state.Spec.Version, strings.Join(state.Completeness.MissingSections, ", "))
}

func printCompleteness(c internal.CompletenessState) {
	if c.ReadyForHandoff {
		fmt.Println(readyStyle.Render("✓ Ready for handoff"))
		return
	}
	fmt.Println(missingStyle.Render("Missing: " + strings.Join(c.MissingSections, ", ")))
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatFinalize, "finalize", false, "Run a single finalize (polish) pass and exit")
}
