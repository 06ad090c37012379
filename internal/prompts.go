package internal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/specsmith/specsmith/internal/llm"
)

var updateSystemPrompt = `You are a product-specification assistant. You maintain a structured
specification document built incrementally from a conversation.

You will be given the current specification as JSON and the new conversation
messages since the last update. Respond with a single JSON object and nothing
else:

{"spec": <the complete updated specification>, "missingSections": [<section names still incomplete>]}

Rules:
- Return the COMPLETE specification object, not a diff.
- Copy every section the new messages do not affect through verbatim.
- For list-valued sections, APPEND new items; do not replace existing ones.
- EXCEPTION: when the new messages explicitly correct a previously stated
  fact (for example "actually, make it X not Y"), REPLACE the affected field
  instead of appending.
- missingSections uses these canonical names only: ` + canonicalSectionList + `.`

const finalizeSystemPrompt = `You are a product-specification assistant performing a final polishing
pass. You will be given a complete specification as JSON. Tighten the
language: make it clearer, more consistent, and more concise. Do NOT
introduce any new facts, requirements, or sections.

Respond with a single JSON object and nothing else:

{"spec": <the complete polished specification>, "missingSections": []}`

var canonicalSectionList = strings.Join(RequiredSections, ", ")

// buildUpdatePrompt assembles the update-mode messages for the gateway.
func buildUpdatePrompt(spec *Specification, newMessages []Message, firstRun bool) []llm.Message {
	var b strings.Builder

	if firstRun {
		b.WriteString("This is the first synthesis for this session. The current specification is the empty starting document.\n\n")
	}

	b.WriteString("Current specification:\n")
	b.WriteString(specJSON(spec))
	b.WriteString("\n\nNew messages since the last update:\n")
	for _, msg := range newMessages {
		fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Content)
	}
	b.WriteString("\nReturn the updated specification JSON now.")

	return []llm.Message{
		{Role: RoleSystem, Content: updateSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

// buildFinalizePrompt assembles the finalize-mode messages for the gateway.
func buildFinalizePrompt(spec *Specification) []llm.Message {
	var b strings.Builder
	b.WriteString("Specification to polish:\n")
	b.WriteString(specJSON(spec))
	b.WriteString("\n\nReturn the polished specification JSON now.")

	return []llm.Message{
		{Role: RoleSystem, Content: finalizeSystemPrompt},
		{Role: RoleUser, Content: b.String()},
	}
}

func specJSON(spec *Specification) string {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
