package plugin

import (
	"sort"
	"sync"
)

// defaultEngineFeatures are always present and never unregistered, even
// when the dynamic plugin that re-published one unloads.
var defaultEngineFeatures = []string{
	"core.app",
	"core.renderer",
	"core.world",
	"core.assets",
	"core.input",
	"core.time",
	"scripts.lua",
	"render.2d",
	"render.3d",
}

// FeatureRegistry is the process-wide set of published feature strings.
// It is created once by the manager and shared by handle; plugins see an
// append-only surface through the Context.
type FeatureRegistry struct {
	mu       sync.RWMutex
	features map[string]struct{}
}

// NewFeatureRegistry returns a registry pre-populated with the engine
// defaults.
func NewFeatureRegistry() *FeatureRegistry {
	r := &FeatureRegistry{features: make(map[string]struct{})}
	for _, feature := range defaultEngineFeatures {
		r.features[feature] = struct{}{}
	}
	return r
}

// Register publishes a feature string. Re-registering is a no-op.
func (r *FeatureRegistry) Register(feature string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.features[feature] = struct{}{}
}

// RegisterAll publishes every feature in the list.
func (r *FeatureRegistry) RegisterAll(features []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, feature := range features {
		r.features[feature] = struct{}{}
	}
}

// Unregister withdraws a feature. Engine defaults cannot be withdrawn.
// Not exposed to plugins; only the manager calls this during dynamic
// unload.
func (r *FeatureRegistry) Unregister(feature string) {
	for _, protected := range defaultEngineFeatures {
		if feature == protected {
			return
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.features, feature)
}

// Contains reports whether a feature has been published.
func (r *FeatureRegistry) Contains(feature string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.features[feature]
	return ok
}

// Missing returns the subset of required features not yet published,
// sorted.
func (r *FeatureRegistry) Missing(required []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, feature := range required {
		if _, ok := r.features[feature]; !ok {
			missing = append(missing, feature)
		}
	}
	sort.Strings(missing)
	return missing
}

// All returns every published feature, sorted.
func (r *FeatureRegistry) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]string, 0, len(r.features))
	for feature := range r.features {
		all = append(all, feature)
	}
	sort.Strings(all)
	return all
}
