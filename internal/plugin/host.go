package plugin

import (
	"fmt"
	"log"
)

// BuiltinFactory constructs one builtin plugin on demand. Construction is
// deferred so a manifest disable skips the builtin entirely rather than
// building and discarding it.
type BuiltinFactory struct {
	Name     string
	Provides []string
	New      func() Plugin
}

// Host ties a Manager to a manifest on disk. It owns manifest load and
// reload, builtin registration honoring disable_builtins, dynamic
// load/unload cycles, and toggle persistence.
type Host struct {
	manager       *Manager
	manifestPath  string
	manifest      *Manifest
	manifestError error
}

// NewHost loads the manifest at path and returns the host around the
// given manager. A missing file, like a malformed one, leaves the host
// without a manifest (toggle operations then fail with
// ErrManifestUnavailable); only the malformed case records an error.
func NewHost(manager *Manager, path string) *Host {
	h := &Host{manager: manager, manifestPath: path}
	h.reload()
	return h
}

func (h *Host) reload() {
	man, err := LoadManifest(h.manifestPath)
	if err != nil {
		log.Printf("plugin manifest %s: %v", h.manifestPath, err)
		h.manifest = nil
		h.manifestError = err
		return
	}
	h.manifest = man
	h.manifestError = nil
}

// Manager returns the underlying plugin manager.
func (h *Host) Manager() *Manager {
	return h.manager
}

// Manifest returns the current manifest, or nil when the last load
// failed or no manifest file exists.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// ManifestError returns the error from the most recent manifest load, if
// any.
func (h *Host) ManifestError() error {
	return h.manifestError
}

// RegisterBuiltins registers the given builtins in order, skipping any
// the manifest disables. A disabled builtin gets a Disabled status; a
// registration failure aborts, since builtins are part of the engine.
func (h *Host) RegisterBuiltins(factories []BuiltinFactory, ctx *Context) error {
	for _, f := range factories {
		if h.manifest != nil && h.manifest.IsBuiltinDisabled(f.Name) {
			h.manager.RecordBuiltinDisabled(f.Name, "disabled in manifest")
			continue
		}
		if err := h.manager.RegisterWithFeatures(f.New(), f.Provides, ctx); err != nil {
			return fmt.Errorf("builtin %q: %w", f.Name, err)
		}
	}
	return nil
}

// LoadDynamic unloads any resident dynamic plugins, clears their
// statuses, and loads the manifest's current enabled set. Returns the
// names that loaded. When no manifest is available the resident set is
// still unloaded and ErrManifestUnavailable is returned.
func (h *Host) LoadDynamic(ctx *Context) ([]string, error) {
	h.manager.UnloadDynamic(ctx)
	h.manager.ClearDynamicStatuses()
	if h.manifest == nil {
		if h.manifestError != nil {
			return nil, fmt.Errorf("%w: %v", ErrManifestUnavailable, h.manifestError)
		}
		return nil, ErrManifestUnavailable
	}
	return h.manager.LoadDynamicFromManifest(h.manifest, ctx), nil
}

// ToggleSummary aggregates both toggle categories from one apply call so
// callers can decide on persistence or reload from a single result.
type ToggleSummary struct {
	Dynamic DynamicToggleOutcome
	Builtin BuiltinToggleOutcome
	Changed bool
}

// ApplyToggles applies dynamic and builtin toggles in one operation and
// persists the manifest once when either category actually changed.
// Unknown dynamic names are reported in the outcome, never treated as an
// error. A persist failure is returned alongside the summary; the
// in-memory flips stand.
func (h *Host) ApplyToggles(dynamic []DynamicToggle, builtin []BuiltinToggle) (ToggleSummary, error) {
	if h.manifest == nil {
		return ToggleSummary{}, ErrManifestUnavailable
	}
	summary := ToggleSummary{
		Dynamic: ApplyDynamicToggles(h.manifest, dynamic),
		Builtin: ApplyBuiltinToggles(h.manifest, builtin),
	}
	summary.Changed = summary.Dynamic.Changed || summary.Builtin.Changed
	if summary.Changed {
		if err := h.manifest.Save(); err != nil {
			return summary, fmt.Errorf("persist manifest: %w", err)
		}
	}
	return summary, nil
}

// ApplyManifestToggles flips enabled flags on dynamic entries only.
func (h *Host) ApplyManifestToggles(toggles []DynamicToggle) (DynamicToggleOutcome, error) {
	summary, err := h.ApplyToggles(toggles, nil)
	return summary.Dynamic, err
}

// ApplyBuiltinToggles updates disable_builtins only.
func (h *Host) ApplyBuiltinToggles(toggles []BuiltinToggle) (BuiltinToggleOutcome, error) {
	summary, err := h.ApplyToggles(nil, toggles)
	return summary.Builtin, err
}

// ReloadManifestFromDisk re-reads the manifest file. A successful read
// replaces the in-memory manifest and clears any recorded error; a
// failed read leaves the host without a manifest until the file is
// fixed, so the error surfaces rather than serving stale state.
func (h *Host) ReloadManifestFromDisk() error {
	h.reload()
	return h.manifestError
}

// ReloadDynamic is the full reload cycle: re-read the manifest, then
// unload and load the dynamic set against it.
func (h *Host) ReloadDynamic(ctx *Context) ([]string, error) {
	if err := h.ReloadManifestFromDisk(); err != nil {
		h.manager.UnloadDynamic(ctx)
		h.manager.ClearDynamicStatuses()
		return nil, fmt.Errorf("%w: %v", ErrManifestUnavailable, err)
	}
	return h.LoadDynamic(ctx)
}
