package export

import (
	"encoding/json"
	"io"

	"github.com/specsmith/specsmith/internal"
)

// JSONExporter exports the full session state as indented JSON.
type JSONExporter struct{}

// Export writes the session state in JSON format
func (e *JSONExporter) Export(state *internal.SessionState, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(state)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
