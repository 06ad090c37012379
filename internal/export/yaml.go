package export

import (
	"fmt"
	"io"

	"github.com/specsmith/specsmith/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports the specification as YAML.
type YAMLExporter struct{}

// Export writes the specification in YAML format
func (e *YAMLExporter) Export(state *internal.SessionState, w io.Writer) error {
	if state.Spec == nil {
		return fmt.Errorf("session has no specification")
	}
	data, err := yaml.Marshal(state.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal specification: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
