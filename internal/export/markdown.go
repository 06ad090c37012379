package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/specsmith/specsmith/internal"
)

// MarkdownExporter renders the specification as a handoff-ready PRD document.
type MarkdownExporter struct{}

// Export writes the specification in Markdown format
func (e *MarkdownExporter) Export(state *internal.SessionState, w io.Writer) error {
	spec := state.Spec
	if spec == nil {
		return fmt.Errorf("session has no specification")
	}

	_, _ = fmt.Fprintf(w, "# Product Specification\n\n")
	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", state.Session.ID)
	_, _ = fmt.Fprintf(w, "**Version:** %d  \n", spec.Version)
	if !spec.LastUpdated.IsZero() {
		_, _ = fmt.Fprintf(w, "**Last updated:** %s\n", spec.LastUpdated.Format("2006-01-02 15:04"))
	}
	_, _ = fmt.Fprintf(w, "\n---\n\n")

	// Plain-English summary
	_, _ = fmt.Fprintf(w, "## Summary\n\n")
	if spec.Summary.Overview != "" {
		_, _ = fmt.Fprintf(w, "### Overview\n\n%s\n\n", spec.Summary.Overview)
	}
	if spec.Summary.TargetUsers != "" {
		_, _ = fmt.Fprintf(w, "### Target users\n\n%s\n\n", spec.Summary.TargetUsers)
	}
	writeList(w, "Key features", spec.Summary.KeyFeatures)
	writeList(w, "Flows", spec.Summary.Flows)
	writeList(w, "Rules and constraints", spec.Summary.RulesAndConstraints)
	writeList(w, "Non-functional", spec.Summary.NonFunctional)

	if len(spec.Summary.MVP.Included) > 0 || len(spec.Summary.MVP.Excluded) > 0 {
		_, _ = fmt.Fprintf(w, "### MVP\n\n")
		writeList(w, "Included", spec.Summary.MVP.Included)
		writeList(w, "Excluded", spec.Summary.MVP.Excluded)
	}

	// Formal PRD
	_, _ = fmt.Fprintf(w, "## Requirements\n\n")
	if spec.PRD.Introduction != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", spec.PRD.Introduction)
	}
	for _, req := range spec.PRD.Requirements {
		_, _ = fmt.Fprintf(w, "### %s (%s)\n\n%s\n\n", req.ID, req.Priority, req.UserStory)
		for _, criterion := range req.AcceptanceCriteria {
			_, _ = fmt.Fprintf(w, "- [ ] %s\n", criterion)
		}
		if len(req.AcceptanceCriteria) > 0 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
	writeList(w, "Non-functional requirements", spec.PRD.NonFunctionalRequirements)

	if len(spec.PRD.Glossary) > 0 {
		_, _ = fmt.Fprintf(w, "## Glossary\n\n")
		for _, term := range sortedKeys(spec.PRD.Glossary) {
			_, _ = fmt.Fprintf(w, "**%s**: %s\n\n", term, spec.PRD.Glossary[term])
		}
	}

	return nil
}

func writeList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "### %s\n\n", heading)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "- %s\n", item)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
