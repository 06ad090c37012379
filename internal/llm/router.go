package llm

import (
	"sync"
)

// ModelTier classifies a model by capability/cost tradeoff.
type ModelTier string

const (
	TierSmall   ModelTier = "small"   // fast/cheap model for simple tasks
	TierDefault ModelTier = "default" // standard model for most tasks
	TierStrong  ModelTier = "strong"  // most capable model for complex tasks
)

// ModelProfile describes a single model available for routing.
type ModelProfile struct {
	Provider string
	Model    string
	Tier     ModelTier
}

// Router selects a model for a request by tier, skipping models whose
// provider has been marked unhealthy. A provider not present in the health
// map is assumed healthy.
type Router struct {
	mu             sync.RWMutex
	models         []ModelProfile
	defaultTier    ModelTier
	providerHealth map[string]bool
}

// NewRouter creates a Router over the given model profiles.
func NewRouter(models []ModelProfile, defaultTier ModelTier) *Router {
	if defaultTier == "" {
		defaultTier = TierDefault
	}
	copied := make([]ModelProfile, len(models))
	copy(copied, models)
	return &Router{
		models:         copied,
		defaultTier:    defaultTier,
		providerHealth: make(map[string]bool),
	}
}

// RegisterModel adds or updates a model profile. A profile with the same
// Provider+Model replaces the existing one.
func (r *Router) RegisterModel(profile ModelProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.models {
		if m.Provider == profile.Provider && m.Model == profile.Model {
			r.models[i] = profile
			return
		}
	}
	r.models = append(r.models, profile)
}

// SetProviderHealth marks a provider as healthy or unhealthy.
func (r *Router) SetProviderHealth(provider string, healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providerHealth[provider] = healthy
}

func (r *Router) isHealthy(provider string) bool {
	healthy, ok := r.providerHealth[provider]
	if !ok {
		return true
	}
	return healthy
}

// Route returns the model name for the requested tier. When no healthy model
// matches the tier it falls back to the default tier, then to the first
// healthy model, then to the empty string (caller uses the client default).
func (r *Router) Route(tier ModelTier) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tier == "" {
		tier = r.defaultTier
	}
	for _, m := range r.models {
		if m.Tier == tier && r.isHealthy(m.Provider) {
			return m.Model
		}
	}
	if tier != r.defaultTier {
		for _, m := range r.models {
			if m.Tier == r.defaultTier && r.isHealthy(m.Provider) {
				return m.Model
			}
		}
	}
	for _, m := range r.models {
		if r.isHealthy(m.Provider) {
			return m.Model
		}
	}
	return ""
}
