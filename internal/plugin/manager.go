package plugin

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/kestrel-engine/kestrel/internal/engine"
)

// slot is one registered plugin and the bookkeeping around it. Field order
// mirrors the teardown contract: the plugin instance is dropped before the
// library handle it came from.
type slot struct {
	name         string
	plugin       Plugin
	provides     []string
	dependsOn    []string
	dynamic      bool
	trust        Trust
	caps         capSet
	capList      []Capability
	failedReason string
	lib          *library
}

// Manager owns the active plugin set and dispatches lifecycle calls to it
// in registration order. Dispatch is single-threaded and cooperative; the
// Manager itself is not safe for concurrent use, matching the host's
// single main loop.
type Manager struct {
	plugins  []*slot
	features *FeatureRegistry
	tracker  *Tracker
	statuses []Status
	loaded   map[string]bool
	loader   *Loader
}

// NewManager returns a manager with fresh feature and capability
// registries. The registries live as long as the manager; handles handed
// out are stable, so plugins registered at different times observe the
// same shared state.
func NewManager() *Manager {
	return &Manager{
		features: NewFeatureRegistry(),
		tracker:  NewTracker(),
		loaded:   make(map[string]bool),
		loader:   NewLoader(),
	}
}

// FeatureHandle returns the shared feature registry for building Contexts.
func (m *Manager) FeatureHandle() *FeatureRegistry {
	return m.features
}

// TrackerHandle returns the shared capability tracker.
func (m *Manager) TrackerHandle() *Tracker {
	return m.tracker
}

// CapabilityMetrics returns a snapshot of per-plugin violation logs.
func (m *Manager) CapabilityMetrics() map[string]ViolationLog {
	return m.tracker.Snapshot()
}

// DrainViolationEvents returns and clears recent capability violations.
func (m *Manager) DrainViolationEvents() []ViolationEvent {
	return m.tracker.DrainEvents()
}

// Register adds an in-process plugin with the default capability set.
func (m *Manager) Register(p Plugin, ctx *Context) error {
	return m.insert(p, nil, false, nil, DefaultCapabilities(), TrustFull, ctx)
}

// RegisterWithFeatures adds an in-process plugin that publishes the given
// feature strings on acceptance.
func (m *Manager) RegisterWithFeatures(p Plugin, provides []string, ctx *Context) error {
	return m.insert(p, nil, false, provides, DefaultCapabilities(), TrustFull, ctx)
}

// RegisterWithCapabilities adds an in-process plugin with an explicit
// capability declaration.
func (m *Manager) RegisterWithCapabilities(p Plugin, provides []string, caps []Capability, ctx *Context) error {
	return m.insert(p, nil, false, provides, caps, TrustFull, ctx)
}

// RecordBuiltinDisabled records a Disabled status for a builtin that was
// skipped before construction.
func (m *Manager) RecordBuiltinDisabled(name, reason string) {
	m.pushStatus(Status{
		Name:         name,
		Dynamic:      false,
		Capabilities: DefaultCapabilities(),
		Trust:        TrustFull,
		State:        StateDisabled,
		Reason:       reason,
	})
}

// LoadDynamicFromManifest loads every enabled manifest entry. Per-entry
// failures (missing artifact, bad entry symbol, API mismatch, build error)
// become Failed or Disabled statuses and never abort the rest of the
// batch. Returns the names that loaded.
func (m *Manager) LoadDynamicFromManifest(manifest *Manifest, ctx *Context) []string {
	var loadedNames []string
	for i := range manifest.Plugins {
		entry := &manifest.Plugins[i]
		if m.loaded[entry.Name] {
			// Already resident (earlier load, or a builtin shadowing the
			// name). The restated status is always dynamic so the next
			// ClearDynamicStatuses sweeps it before a reload.
			if s := m.findSlot(entry.Name); s != nil {
				st := m.slotStatus(s, StateLoaded, "")
				st.Dynamic = true
				m.pushStatus(st)
			} else {
				m.pushEntryStatus(entry, StateLoaded, "")
			}
			continue
		}
		if !entry.Enabled {
			m.pushEntryStatus(entry, StateDisabled, "disabled in manifest")
			continue
		}
		if entry.Path == "" {
			m.pushEntryStatus(entry, StateFailed, "missing plugin path")
			continue
		}
		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(manifest.Dir(), path)
		}
		if err := m.loadEntry(entry, path, ctx); err != nil {
			log.Printf("[plugin:%s] load failed: %v", entry.Name, err)
			m.pushEntryStatus(entry, StateFailed, err.Error())
			continue
		}
		loadedNames = append(loadedNames, entry.Name)
	}
	return loadedNames
}

// loadEntry resolves and registers one enabled manifest entry.
func (m *Manager) loadEntry(entry *ManifestEntry, path string, ctx *Context) error {
	if entry.MinEngineAPI > APIVersion {
		return fmt.Errorf("requires engine plugin API %d, host exports %d: %w",
			entry.MinEngineAPI, APIVersion, ErrAPIVersionMismatch)
	}
	if missing := m.features.Missing(entry.RequiresFeatures); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingFeatures, missing)
	}

	if entry.Trust == TrustIsolated {
		proxy, err := NewIsolatedProxy(entry, path)
		if err != nil {
			return err
		}
		return m.insert(proxy, nil, true, entry.ProvidesFeatures, entry.Capabilities, entry.Trust, ctx)
	}

	p, lib, err := m.loader.Open(path)
	if err != nil {
		return err
	}
	return m.insert(p, lib, true, entry.ProvidesFeatures, entry.Capabilities, entry.Trust, ctx)
}

// insert validates uniqueness and dependencies, runs Build, and commits
// the plugin into the active table. Build runs under the plugin's own
// capability scope; a Build failure aborts the registration and the table
// is untouched.
func (m *Manager) insert(p Plugin, lib *library, dynamic bool, provides []string, caps []Capability, trust Trust, ctx *Context) error {
	name := p.Name()
	if m.loaded[name] {
		return fmt.Errorf("plugin %q: %w", name, ErrDuplicateName)
	}
	if err := m.ensureDependencies(p.DependsOn(), name); err != nil {
		return err
	}

	set := newCapSet(caps)
	m.tracker.Register(name)

	ctx.setActivePlugin(name, set, trust)
	buildErr := p.Build(ctx)
	ctx.clearActivePlugin()
	if buildErr != nil {
		return fmt.Errorf("plugin %q: build: %w", name, buildErr)
	}

	m.features.RegisterAll(provides)
	m.loaded[name] = true

	capList := caps
	if len(capList) == 0 {
		capList = DefaultCapabilities()
	}
	s := &slot{
		name:      name,
		plugin:    p,
		provides:  provides,
		dependsOn: p.DependsOn(),
		dynamic:   dynamic,
		trust:     trust,
		caps:      set,
		capList:   capList,
		lib:       lib,
	}
	m.plugins = append(m.plugins, s)
	m.pushStatus(m.slotStatus(s, StateLoaded, ""))
	return nil
}

func (m *Manager) ensureDependencies(deps []string, name string) error {
	var missing []string
	for _, dep := range deps {
		if !m.loaded[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("plugin %q requires %v: %w", name, missing, ErrDependencyNotFound)
	}
	return nil
}

// Update dispatches a frame update to every active plugin in registration
// order. Errors are logged per plugin; panics mark the plugin failed and
// it is skipped on subsequent passes.
func (m *Manager) Update(ctx *Context, dt float64) {
	m.dispatch(ctx, "update", func(p Plugin, c *Context) error {
		return p.Update(c, dt)
	})
}

// FixedUpdate dispatches one fixed simulation step.
func (m *Manager) FixedUpdate(ctx *Context, dt float64) {
	m.dispatch(ctx, "fixed_update", func(p Plugin, c *Context) error {
		return p.FixedUpdate(c, dt)
	})
}

// HandleEvents delivers the frame's event batch, whole, to every active
// plugin. An empty batch is not dispatched.
func (m *Manager) HandleEvents(ctx *Context, events []engine.Event) {
	if len(events) == 0 {
		return
	}
	m.dispatch(ctx, "on_events", func(p Plugin, c *Context) error {
		return p.OnEvents(c, events)
	})
}

// dispatch runs one lifecycle pass over the table in registration order.
// Failed plugins are skipped. A panic inside a plugin is recovered, marks
// the plugin failed, and the pass continues with the next plugin.
func (m *Manager) dispatch(ctx *Context, phase string, call func(Plugin, *Context) error) {
	for _, s := range m.plugins {
		if s.failedReason != "" {
			continue
		}
		m.dispatchOne(ctx, phase, s, call)
	}
}

func (m *Manager) dispatchOne(ctx *Context, phase string, s *slot, call func(Plugin, *Context) error) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("panic in %s: %v", phase, r)
			log.Printf("[plugin:%s] %s", s.name, reason)
			m.markFailed(s, reason)
		}
		ctx.clearActivePlugin()
	}()
	ctx.setActivePlugin(s.name, s.caps, s.trust)
	if err := call(s.plugin, ctx); err != nil {
		log.Printf("[plugin:%s] %s: %v", s.name, phase, err)
	}
}

// markFailed quarantines a plugin and updates its recorded status in
// place so Statuses reflects the failure immediately.
func (m *Manager) markFailed(s *slot, reason string) {
	s.failedReason = reason
	for i := range m.statuses {
		if m.statuses[i].Name == s.name {
			m.statuses[i].State = StateFailed
			m.statuses[i].Reason = reason
			return
		}
	}
	m.pushStatus(m.slotStatus(s, StateFailed, reason))
}

// Shutdown tears down every plugin in registration order. Failed plugins
// are still shut down; their Shutdown may be the only chance to release
// external resources.
func (m *Manager) Shutdown(ctx *Context) {
	for _, s := range m.plugins {
		m.shutdownSlot(ctx, s)
	}
	m.plugins = nil
	m.loaded = make(map[string]bool)
}

func (m *Manager) shutdownSlot(ctx *Context, s *slot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[plugin:%s] panic in shutdown: %v", s.name, r)
		}
		ctx.clearActivePlugin()
		// Instance goes away before the library handle that backs it.
		s.plugin = nil
		s.lib = nil
	}()
	ctx.setActivePlugin(s.name, s.caps, s.trust)
	if err := s.plugin.Shutdown(ctx); err != nil {
		log.Printf("[plugin:%s] shutdown: %v", s.name, err)
	}
}

// UnloadDynamic shuts down and removes every dynamically loaded plugin,
// leaving builtins resident. Features a dynamic plugin published are
// withdrawn unless a remaining plugin still provides them; protected
// engine defaults are never withdrawn.
func (m *Manager) UnloadDynamic(ctx *Context) {
	var kept []*slot
	var removed []*slot
	for _, s := range m.plugins {
		if s.dynamic {
			removed = append(removed, s)
		} else {
			kept = append(kept, s)
		}
	}
	for _, s := range removed {
		m.shutdownSlot(ctx, s)
		delete(m.loaded, s.name)
	}
	m.plugins = kept

	stillProvided := make(map[string]bool)
	for _, s := range kept {
		for _, f := range s.provides {
			stillProvided[f] = true
		}
	}
	for _, s := range removed {
		for _, f := range s.provides {
			if !stillProvided[f] {
				m.features.Unregister(f)
			}
		}
	}
}

// ClearDynamicStatuses drops recorded statuses for dynamic plugins ahead
// of a reload, so the next LoadDynamicFromManifest starts clean.
func (m *Manager) ClearDynamicStatuses() {
	kept := m.statuses[:0]
	for _, st := range m.statuses {
		if !st.Dynamic {
			kept = append(kept, st)
		}
	}
	m.statuses = kept
}

// Statuses returns a copy of the recorded plugin statuses in the order
// they were recorded.
func (m *Manager) Statuses() []Status {
	out := make([]Status, len(m.statuses))
	copy(out, m.statuses)
	return out
}

// IsLoaded reports whether a plugin by this name is resident.
func (m *Manager) IsLoaded(name string) bool {
	return m.loaded[name]
}

func (m *Manager) findSlot(name string) *slot {
	for _, s := range m.plugins {
		if s.name == name {
			return s
		}
	}
	return nil
}

func (m *Manager) pushStatus(st Status) {
	m.statuses = append(m.statuses, st)
}

func (m *Manager) pushEntryStatus(entry *ManifestEntry, state StateKind, reason string) {
	caps := entry.Capabilities
	if len(caps) == 0 {
		caps = DefaultCapabilities()
	}
	m.pushStatus(Status{
		Name:         entry.Name,
		Version:      entry.Version,
		Dynamic:      true,
		DependsOn:    nil,
		Provides:     entry.ProvidesFeatures,
		Capabilities: caps,
		Trust:        entry.Trust,
		State:        state,
		Reason:       reason,
	})
}

func (m *Manager) slotStatus(s *slot, state StateKind, reason string) Status {
	return Status{
		Name:         s.name,
		Version:      s.plugin.Version(),
		Dynamic:      s.dynamic,
		Provides:     s.provides,
		DependsOn:    s.dependsOn,
		Capabilities: s.capList,
		Trust:        s.trust,
		State:        state,
		Reason:       reason,
	}
}

// Get returns the resident plugin with the given name downcast to T.
// The second result is false when the plugin is absent or is not a T.
func Get[T Plugin](m *Manager, name string) (T, bool) {
	var zero T
	s := m.findSlot(name)
	if s == nil {
		return zero, false
	}
	t, ok := s.plugin.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
