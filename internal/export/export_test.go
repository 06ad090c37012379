package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/specsmith/specsmith/internal"
)

func sampleState() *internal.SessionState {
	spec := internal.NewSpecification("s1")
	spec.Version = 2
	spec.LastUpdated = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	spec.Summary.Overview = "An online store selling dog food"
	spec.Summary.TargetUsers = "Dog owners"
	spec.Summary.KeyFeatures = []string{"Product catalog", "Subscriptions"}
	spec.Summary.Flows = []string{"Browse, add to cart, check out"}
	spec.Summary.MVP = internal.MVPDefinition{
		Included: []string{"Checkout"},
		Excluded: []string{"Loyalty points"},
	}
	spec.PRD.Introduction = "This document describes the dog food store."
	spec.PRD.Requirements = []internal.Requirement{
		{
			ID:                 "R1",
			UserStory:          "As a dog owner, I want to subscribe to recurring deliveries.",
			AcceptanceCriteria: []string{"Subscription can be paused", "Monthly billing"},
			Priority:           internal.PriorityMustHave,
		},
	}
	spec.PRD.Glossary = map[string]string{
		"SKU":          "Stock keeping unit",
		"Subscription": "A recurring delivery plan",
	}

	return &internal.SessionState{
		Session: internal.Session{ID: "s1", Status: internal.StatusActive},
		Messages: []internal.Message{
			{ID: "m1", Role: internal.RoleUser, Content: "I want to sell dog food online", Timestamp: time.Now()},
			{ID: "m2", Role: internal.RoleAssistant, Content: "Noted. Who are the target users?", Timestamp: time.Now()},
		},
		Spec: spec,
	}
}

func TestNewExporter(t *testing.T) {
	for format, ext := range map[string]string{
		"md": "md", "markdown": "md", "json": "json", "yaml": "yaml", "jsonl": "jsonl",
	} {
		exporter, err := NewExporter(format)
		if err != nil {
			t.Fatalf("NewExporter(%q) failed: %v", format, err)
		}
		if exporter.Extension() != ext {
			t.Errorf("NewExporter(%q).Extension() = %q, want %q", format, exporter.Extension(), ext)
		}
	}

	if _, err := NewExporter("pdf"); err == nil {
		t.Error("unsupported format should be an error")
	}
}

func TestMarkdownExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(sampleState(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Product Specification",
		"**Version:** 2",
		"### Overview",
		"An online store selling dog food",
		"### Target users",
		"- Product catalog",
		"### MVP",
		"- Loyalty points",
		"### R1 (must-have)",
		"- [ ] Subscription can be paused",
		"## Glossary",
		"**SKU**",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	// Glossary terms come out sorted.
	if strings.Index(out, "**SKU**") > strings.Index(out, "**Subscription**") {
		t.Error("glossary should be alphabetical")
	}
}

func TestMarkdownExporter_SkipsEmptySections(t *testing.T) {
	state := &internal.SessionState{
		Session: internal.Session{ID: "s1"},
		Spec:    internal.NewSpecification("s1"),
	}

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(state, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "### Overview") || strings.Contains(out, "## Glossary") {
		t.Error("empty sections should be omitted")
	}
}

func TestMarkdownExporter_NilSpec(t *testing.T) {
	state := &internal.SessionState{Session: internal.Session{ID: "s1"}}
	if err := (&MarkdownExporter{}).Export(state, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil specification")
	}
}

func TestJSONExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(sampleState(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var decoded internal.SessionState
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Session.ID != "s1" || len(decoded.Messages) != 2 {
		t.Errorf("decoded = %+v", decoded.Session)
	}
	if decoded.Spec == nil || decoded.Spec.Summary.TargetUsers != "Dog owners" {
		t.Error("specification missing from JSON export")
	}
}

func TestYAMLExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&YAMLExporter{}).Export(sampleState(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Dog owners") {
		t.Error("output missing specification content")
	}
	// The YAML export is the specification only, not the transcript.
	if strings.Contains(out, "I want to sell dog food online") {
		t.Error("transcript should not appear in YAML export")
	}
}

func TestJSONLExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(sampleState(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	var msg internal.Message
	if err := json.Unmarshal([]byte(lines[0]), &msg); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if msg.ID != "m1" || msg.Role != internal.RoleUser {
		t.Errorf("first line = %+v", msg)
	}
}
