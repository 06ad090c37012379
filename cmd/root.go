package cmd

import (
	"fmt"
	"os"

	"github.com/specsmith/specsmith/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	dataDir    string
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "specsmith",
	Short: "Build product specifications through conversation",
	Long: `A conversational specification-building assistant.

Chat about your product idea and specsmith incrementally synthesizes a
structured specification (plain-English summary + formal PRD) from the
conversation, tracks which sections are still missing, and tells you when
the document is ready for handoff.

Sessions are persisted locally and can be resumed later, directly by id or
through a shareable magic link.

Quick Start:
  specsmith new                      # Start a session
  specsmith chat <session-id>        # Talk through your idea
  specsmith show <session-id>        # Review the specification so far
  specsmith export <session-id>      # Export the PRD as Markdown

Set SPECSMITH_API_KEY (or configure provider.api_key) before chatting.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Data directory (default ~/.specsmith)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.specsmith/config.yaml)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig resolves the effective configuration from flags and file.
func loadConfig() (*internal.Config, error) {
	path := configPath
	if path == "" {
		path = internal.DefaultConfigPath()
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// openManager opens the database and builds the session manager. The
// returned cleanup closes the database.
func openManager() (*internal.Config, *internal.SessionManager, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := internal.OpenDatabase(cfg.DatabasePath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	manager := internal.NewSessionManager(internal.NewStorage(db))
	manager.RejectAbandonedWrites = cfg.RejectAbandonedWrites

	cleanup := func() {
		if err := db.Close(); err != nil {
			internal.LogWarn("Failed to close database: %v", err)
		}
	}
	return cfg, manager, cleanup, nil
}

// openCache builds the client-side cache for the configured data dir.
func openCache(cfg *internal.Config) *internal.ClientCache {
	return internal.NewClientCache(cfg.CacheDir())
}
