package export

import (
	"encoding/json"
	"io"

	"github.com/specsmith/specsmith/internal"
)

// JSONLExporter exports the conversation transcript, one message per line.
type JSONLExporter struct{}

// Export writes the transcript in JSON Lines format
func (e *JSONLExporter) Export(state *internal.SessionState, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for _, msg := range state.Messages {
		if err := encoder.Encode(msg); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
