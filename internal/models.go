package internal

import (
	"encoding/json"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Requirement priorities.
const (
	PriorityMustHave   = "must-have"
	PriorityNiceToHave = "nice-to-have"
)

// Session statuses.
const (
	StatusActive    = "active"
	StatusAbandoned = "abandoned"
)

// Canonical specification section names. These drive both the completeness
// target and the fallback list used when a synthesis response cannot be parsed.
const (
	SectionOverview            = "overview"
	SectionTargetUsers         = "targetUsers"
	SectionKeyFeatures         = "keyFeatures"
	SectionFlows               = "flows"
	SectionRulesAndConstraints = "rulesAndConstraints"
	SectionNonFunctional       = "nonFunctional"
	SectionMVPDefinition       = "mvpDefinition"
)

// RequiredSections lists every section a specification needs before it is
// considered ready for handoff.
var RequiredSections = []string{
	SectionOverview,
	SectionTargetUsers,
	SectionKeyFeatures,
	SectionFlows,
	SectionRulesAndConstraints,
	SectionNonFunctional,
	SectionMVPDefinition,
}

// DefaultMissingSections returns the minimum set reported when a synthesis
// response cannot be parsed.
func DefaultMissingSections() []string {
	return []string{
		SectionOverview,
		SectionTargetUsers,
		SectionKeyFeatures,
		SectionFlows,
	}
}

// Message represents a single conversational turn. Messages are immutable
// once created; insertion order is the conversation order.
type Message struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"` // "user", "assistant", "system"
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// MVPDefinition splits the minimum viable product into what is in and out.
type MVPDefinition struct {
	Included []string `json:"included"`
	Excluded []string `json:"excluded"`
}

// PlainEnglishSummary is the readable half of a specification.
type PlainEnglishSummary struct {
	Overview            string        `json:"overview"`
	TargetUsers         string        `json:"targetUsers"`
	KeyFeatures         []string      `json:"keyFeatures"`
	Flows               []string      `json:"flows"`
	RulesAndConstraints []string      `json:"rulesAndConstraints"`
	NonFunctional       []string      `json:"nonFunctional"`
	MVP                 MVPDefinition `json:"mvpDefinition"`
}

// Requirement is a single formal requirement in the PRD.
type Requirement struct {
	ID                 string   `json:"id"`
	UserStory          string   `json:"userStory"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Priority           string   `json:"priority"` // "must-have" or "nice-to-have"
}

// FormalPRD is the formal half of a specification.
type FormalPRD struct {
	Introduction              string            `json:"introduction"`
	Glossary                  map[string]string `json:"glossary,omitempty"`
	Requirements              []Requirement     `json:"requirements"`
	NonFunctionalRequirements []string          `json:"nonFunctionalRequirements"`
}

// Specification is a versioned snapshot of the synthesized document. Snapshots
// are append-only: one row per version, never mutated in place.
type Specification struct {
	ID          string              `json:"id"` // session id
	Version     int                 `json:"version"`
	Summary     PlainEnglishSummary `json:"plainEnglishSummary"`
	PRD         FormalPRD           `json:"formalPRD"`
	LastUpdated time.Time           `json:"lastUpdated"`
}

// NewSpecification returns the zero-value version-0 specification seeded for
// a fresh session.
func NewSpecification(sessionID string) *Specification {
	return &Specification{
		ID:      sessionID,
		Version: 0,
		Summary: PlainEnglishSummary{
			KeyFeatures:         []string{},
			Flows:               []string{},
			RulesAndConstraints: []string{},
			NonFunctional:       []string{},
			MVP:                 MVPDefinition{Included: []string{}, Excluded: []string{}},
		},
		PRD: FormalPRD{
			Glossary:                  map[string]string{},
			Requirements:              []Requirement{},
			NonFunctionalRequirements: []string{},
		},
	}
}

// ContentEqual reports whether two specifications carry the same content,
// ignoring version and timestamps. Used to decide whether a synthesis result
// is materially different from its input.
func (s *Specification) ContentEqual(other *Specification) bool {
	if s == nil || other == nil {
		return s == other
	}
	return marshalContent(s) == marshalContent(other)
}

func marshalContent(s *Specification) string {
	shadow := *s
	shadow.Version = 0
	shadow.LastUpdated = time.Time{}
	data, err := json.Marshal(&shadow)
	if err != nil {
		return ""
	}
	return string(data)
}

// CompletenessState is derived from the latest synthesis output, never
// authored independently.
type CompletenessState struct {
	MissingSections []string  `json:"missingSections"`
	ReadyForHandoff bool      `json:"readyForHandoff"`
	LastEvaluated   time.Time `json:"lastEvaluated"`
}

// Session owns one message log and one specification history.
type Session struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	MagicLinkToken string    `json:"magicLinkToken,omitempty"`
	Status         string    `json:"status"` // "active" or "abandoned"
}

// LockedSection marks a specification section as decided. Advisory only;
// nothing in the data layer enforces it.
type LockedSection struct {
	Name     string    `json:"name"`
	Summary  string    `json:"summary"`
	LockedAt time.Time `json:"lockedAt"`
}

// SessionState is the aggregated view of a session the manager reads and
// writes as one logical unit.
type SessionState struct {
	Session      Session           `json:"session"`
	Messages     []Message         `json:"messages"`
	Spec         *Specification    `json:"specification"`
	Completeness CompletenessState `json:"completeness"`
}
