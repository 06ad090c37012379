package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/specsmith/specsmith/internal"
	"github.com/specsmith/specsmith/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export the specification or transcript",
	Long: `Exports the session in the chosen format:

  md     Markdown PRD document (default)
  json   Full session state as JSON
  yaml   Specification as YAML
  jsonl  Conversation transcript, one message per line`,
	Args: cobra.ExactArgs(1),
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

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		w := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := exporter.Export(state, w); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if exportOutput != "" {
			fmt.Fprintf(os.Stderr, "Exported to %s\n", exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Export format (md, json, yaml, jsonl)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
