package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/specsmith/specsmith/internal/llm"
)

// Synthesis modes.
const (
	ModeUpdate   = "update"
	ModeFinalize = "finalize"
)

// SynthesisInput is a tagged variant: update mode carries new messages and
// the first-run flag, finalize mode carries only the current specification.
// Use UpdateInput or FinalizeInput to construct one; a finalize input can
// never carry stale messages.
type SynthesisInput struct {
	mode        string
	spec        *Specification
	newMessages []Message
	firstRun    bool
}

// UpdateInput builds an update-mode input from the current specification and
// the messages appended since the last synthesis.
func UpdateInput(spec *Specification, newMessages []Message, firstRun bool) SynthesisInput {
	return SynthesisInput{
		mode:        ModeUpdate,
		spec:        spec,
		newMessages: newMessages,
		firstRun:    firstRun,
	}
}

// FinalizeInput builds a finalize-mode input. Finalize is a terminal polish
// pass: no new messages, no new facts.
func FinalizeInput(spec *Specification) SynthesisInput {
	return SynthesisInput{
		mode: ModeFinalize,
		spec: spec,
	}
}

// Mode returns the input's synthesis mode.
func (in SynthesisInput) Mode() string {
	return in.mode
}

// SynthesisResult is the engine's output: the (possibly unchanged)
// specification and the sections still judged missing.
type SynthesisResult struct {
	Spec            *Specification
	MissingSections []string
}

// Synthesizer converts conversation input into updated specifications via the
// language-model gateway. It never persists anything; the session manager
// owns all writes.
type Synthesizer struct {
	client llm.Client
	router *llm.Router // optional; nil uses the client's default model
}

// NewSynthesizer creates a Synthesizer over the given gateway client. The
// router may be nil.
func NewSynthesizer(client llm.Client, router *llm.Router) *Synthesizer {
	return &Synthesizer{client: client, router: router}
}

// synthesisPayload is the JSON document the model is instructed to return.
type synthesisPayload struct {
	Spec            *Specification `json:"spec"`
	MissingSections []string       `json:"missingSections"`
}

// Synthesize runs one synthesis pass. Gateway failures propagate as a
// SynthesisError; malformed model output never does. The engine falls back
// to the unchanged input specification plus the default missing-section list
// so the conversation can continue without data loss.
func (s *Synthesizer) Synthesize(ctx context.Context, input SynthesisInput) (*SynthesisResult, error) {
	if input.spec == nil {
		return nil, fmt.Errorf("input specification cannot be nil")
	}

	var messages []llm.Message
	var tier llm.ModelTier
	switch input.mode {
	case ModeUpdate:
		messages = buildUpdatePrompt(input.spec, input.newMessages, input.firstRun)
		tier = llm.TierDefault
	case ModeFinalize:
		messages = buildFinalizePrompt(input.spec)
		tier = llm.TierStrong
	default:
		return nil, fmt.Errorf("unknown synthesis mode: %q", input.mode)
	}

	req := llm.Request{
		Messages:    messages,
		Temperature: llm.Temp(0.2),
		MaxTokens:   4096,
	}
	if s.router != nil {
		req.Model = s.router.Route(tier)
	}

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return nil, &SynthesisError{SessionID: input.spec.ID, Mode: input.mode, Err: err}
	}

	payload, err := parseSynthesisResponse(resp.Content)
	if err != nil {
		LogWarn("Failed to parse synthesis response for session %s: %v", input.spec.ID, err)
		return s.fallback(input), nil
	}

	spec := payload.Spec
	spec.ID = input.spec.ID
	spec.LastUpdated = time.Now()
	if spec.ContentEqual(input.spec) {
		spec.Version = input.spec.Version
	} else {
		spec.Version = input.spec.Version + 1
	}

	missing := payload.MissingSections
	if missing == nil {
		missing = []string{}
	}
	// Finalize never reports deficiencies.
	if input.mode == ModeFinalize {
		missing = []string{}
	}

	return &SynthesisResult{Spec: spec, MissingSections: missing}, nil
}

// fallback returns the unchanged input specification. Update mode reports the
// canonical minimum missing set; finalize reports nothing.
func (s *Synthesizer) fallback(input SynthesisInput) *SynthesisResult {
	missing := DefaultMissingSections()
	if input.mode == ModeFinalize {
		missing = []string{}
	}
	return &SynthesisResult{Spec: input.spec, MissingSections: missing}
}

// parseSynthesisResponse parses the gateway's text into a synthesis payload.
// The text is expected to be a JSON document, optionally wrapped in a fenced
// code block.
func parseSynthesisResponse(content string) (*synthesisPayload, error) {
	stripped := StripCodeFence(content)

	var payload synthesisPayload
	if err := json.Unmarshal([]byte(stripped), &payload); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if payload.Spec == nil {
		return nil, fmt.Errorf("response has no spec key")
	}
	return &payload, nil
}

// StripCodeFence removes one leading and trailing ``` fence, with an optional
// language tag on the opening fence. Text without fences passes through
// unchanged.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}

	// Drop the opening fence line (``` or ```json etc).
	lines = lines[1:]

	// Drop the closing fence line if present.
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
