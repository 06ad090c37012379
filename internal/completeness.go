package internal

import "time"

// EvaluateCompleteness derives a CompletenessState from a missing-section
// list. The document is ready for handoff exactly when nothing is missing.
func EvaluateCompleteness(missing []string, at time.Time) CompletenessState {
	normalized := make([]string, 0, len(missing))
	seen := make(map[string]bool)
	for _, name := range missing {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		normalized = append(normalized, name)
	}
	return CompletenessState{
		MissingSections: normalized,
		ReadyForHandoff: len(normalized) == 0,
		LastEvaluated:   at,
	}
}

// VerifySections computes a missing-section list from field emptiness. The
// synthesis engine trusts the model's own missing-section judgement; this
// local check backs the display path, where no fresh engine output exists.
func VerifySections(spec *Specification) []string {
	if spec == nil {
		return append([]string(nil), RequiredSections...)
	}
	var missing []string
	if spec.Summary.Overview == "" {
		missing = append(missing, SectionOverview)
	}
	if spec.Summary.TargetUsers == "" {
		missing = append(missing, SectionTargetUsers)
	}
	if len(spec.Summary.KeyFeatures) == 0 {
		missing = append(missing, SectionKeyFeatures)
	}
	if len(spec.Summary.Flows) == 0 {
		missing = append(missing, SectionFlows)
	}
	if len(spec.Summary.RulesAndConstraints) == 0 {
		missing = append(missing, SectionRulesAndConstraints)
	}
	if len(spec.Summary.NonFunctional) == 0 {
		missing = append(missing, SectionNonFunctional)
	}
	if len(spec.Summary.MVP.Included) == 0 && len(spec.Summary.MVP.Excluded) == 0 {
		missing = append(missing, SectionMVPDefinition)
	}
	return missing
}
