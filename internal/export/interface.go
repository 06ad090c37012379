package export

import (
	"fmt"
	"io"

	"github.com/specsmith/specsmith/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(state *internal.SessionState, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "jsonl":
		return &JSONLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: md, json, yaml, jsonl)", format)
	}
}
