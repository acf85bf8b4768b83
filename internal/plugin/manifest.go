package plugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Manifest is the persisted plugin configuration: which dynamic plugins to
// load and which builtins to suppress.
type Manifest struct {
	DisableBuiltins []string        `json:"disable_builtins"`
	Plugins         []ManifestEntry `json:"plugins"`

	// sourcePath is where the manifest was read from and where Save
	// writes back to. Not serialized.
	sourcePath string
}

// ManifestEntry configures one dynamic plugin.
type ManifestEntry struct {
	Name             string       `json:"name"`
	Path             string       `json:"path"`
	Enabled          bool         `json:"enabled"`
	Version          string       `json:"version,omitempty"`
	MinEngineAPI     uint32       `json:"min_engine_api,omitempty"`
	RequiresFeatures []string     `json:"requires_features,omitempty"`
	ProvidesFeatures []string     `json:"provides_features,omitempty"`
	Capabilities     []Capability `json:"capabilities,omitempty"`
	Trust            Trust        `json:"trust,omitempty"`
}

// LoadManifest reads and parses a manifest file. A missing file is not an
// error; it returns (nil, nil) so the host can run with no manifest. A
// present but unparsable file is an error.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plugin manifest %q: %w", path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing plugin manifest %q: %w", path, err)
	}
	m.sourcePath = path
	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("plugin manifest %q: %w", path, err)
	}
	return &m, nil
}

// applyDefaults fills entry fields the JSON may omit.
func (m *Manifest) applyDefaults() {
	for i := range m.Plugins {
		if m.Plugins[i].Trust == "" {
			m.Plugins[i].Trust = TrustFull
		}
	}
}

// validate rejects manifests the runtime cannot act on.
func (m *Manifest) validate() error {
	seen := make(map[string]bool, len(m.Plugins))
	for _, entry := range m.Plugins {
		if entry.Name == "" {
			return fmt.Errorf("plugin entry with empty name")
		}
		if seen[entry.Name] {
			return fmt.Errorf("duplicate plugin entry %q", entry.Name)
		}
		seen[entry.Name] = true
		switch entry.Trust {
		case TrustFull, TrustIsolated:
		default:
			return fmt.Errorf("plugin %q: unknown trust mode %q", entry.Name, entry.Trust)
		}
		for _, cap := range entry.Capabilities {
			if !knownCapabilities[cap] {
				return fmt.Errorf("plugin %q: unknown capability %q", entry.Name, cap)
			}
		}
	}
	return nil
}

// Path returns where the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.sourcePath
}

// Dir returns the directory relative plugin paths resolve against.
func (m *Manifest) Dir() string {
	if m.sourcePath == "" {
		return "."
	}
	return filepath.Dir(m.sourcePath)
}

// Entry returns a pointer to the named entry for in-place mutation.
func (m *Manifest) Entry(name string) *ManifestEntry {
	for i := range m.Plugins {
		if m.Plugins[i].Name == name {
			return &m.Plugins[i]
		}
	}
	return nil
}

// IsBuiltinDisabled reports whether a builtin name is suppressed.
func (m *Manifest) IsBuiltinDisabled(name string) bool {
	for _, disabled := range m.DisableBuiltins {
		if disabled == name {
			return true
		}
	}
	return false
}

// Save writes the manifest back to its source path atomically: the
// document is written to a temp file in the same directory and renamed
// over the original, so a crash mid-write never leaves a torn manifest.
func (m *Manifest) Save() error {
	if m.sourcePath == "" {
		return fmt.Errorf("plugin manifest has no source path")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing plugin manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(m.sourcePath)
	tmp, err := os.CreateTemp(dir, ".plugins-*.json")
	if err != nil {
		return fmt.Errorf("writing plugin manifest %q: %w", m.sourcePath, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing plugin manifest %q: %w", m.sourcePath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing plugin manifest %q: %w", m.sourcePath, err)
	}
	if err := os.Rename(tmpName, m.sourcePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing plugin manifest %q: %w", m.sourcePath, err)
	}
	return nil
}

// DynamicToggle requests an enabled-state change for one manifest entry.
type DynamicToggle struct {
	Name       string
	NewEnabled bool
}

// DynamicToggleOutcome reports what a batch of dynamic toggles did.
// Unknown names land in Missing and are not errors: a UI may send toggles
// for plugins the manifest never configured.
type DynamicToggleOutcome struct {
	Enabled  []string
	Disabled []string
	Missing  []string
	Changed  bool
}

// ApplyDynamicToggles flips entry enabled flags in place. Toggles are
// deduplicated by name (last write wins) and an entry only counts as
// changed when its flag actually flips.
func ApplyDynamicToggles(m *Manifest, toggles []DynamicToggle) DynamicToggleOutcome {
	var outcome DynamicToggleOutcome
	if len(toggles) == 0 {
		return outcome
	}

	dedup := make(map[string]DynamicToggle, len(toggles))
	order := make([]string, 0, len(toggles))
	for _, toggle := range toggles {
		if _, seen := dedup[toggle.Name]; !seen {
			order = append(order, toggle.Name)
		}
		dedup[toggle.Name] = toggle
	}

	for _, name := range order {
		toggle := dedup[name]
		entry := m.Entry(toggle.Name)
		if entry == nil {
			outcome.Missing = append(outcome.Missing, toggle.Name)
			continue
		}
		if entry.Enabled != toggle.NewEnabled {
			entry.Enabled = toggle.NewEnabled
			outcome.Changed = true
			if toggle.NewEnabled {
				outcome.Enabled = append(outcome.Enabled, toggle.Name)
			} else {
				outcome.Disabled = append(outcome.Disabled, toggle.Name)
			}
		}
	}
	sort.Strings(outcome.Enabled)
	sort.Strings(outcome.Disabled)
	sort.Strings(outcome.Missing)
	return outcome
}

// BuiltinToggle requests adding or removing a name from the disabled
// builtin set.
type BuiltinToggle struct {
	Name    string
	Disable bool
}

// BuiltinToggleOutcome reports what a batch of builtin toggles did.
type BuiltinToggleOutcome struct {
	Disabled []string
	Enabled  []string
	Changed  bool
}

// ApplyBuiltinToggles mutates the disabled-builtin set, marking changed
// only when the set actually moved. The persisted list stays sorted.
func ApplyBuiltinToggles(m *Manifest, toggles []BuiltinToggle) BuiltinToggleOutcome {
	var outcome BuiltinToggleOutcome
	if len(toggles) == 0 {
		return outcome
	}

	dedup := make(map[string]BuiltinToggle, len(toggles))
	for _, toggle := range toggles {
		dedup[toggle.Name] = toggle
	}

	disabled := make(map[string]bool, len(m.DisableBuiltins))
	for _, name := range m.DisableBuiltins {
		disabled[name] = true
	}

	for name, toggle := range dedup {
		if toggle.Disable && !disabled[name] {
			disabled[name] = true
			outcome.Disabled = append(outcome.Disabled, name)
			outcome.Changed = true
		} else if !toggle.Disable && disabled[name] {
			delete(disabled, name)
			outcome.Enabled = append(outcome.Enabled, name)
			outcome.Changed = true
		}
	}

	m.DisableBuiltins = m.DisableBuiltins[:0]
	for name := range disabled {
		m.DisableBuiltins = append(m.DisableBuiltins, name)
	}
	sort.Strings(m.DisableBuiltins)
	sort.Strings(outcome.Disabled)
	sort.Strings(outcome.Enabled)
	return outcome
}
