package plugin

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeManifestFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "plugins.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestMissingFile(t *testing.T) {
	man, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing manifest should not error, got %v", err)
	}
	if man != nil {
		t.Fatal("missing manifest should yield nil")
	}
}

func TestLoadManifestMalformed(t *testing.T) {
	path := writeManifestFile(t, t.TempDir(), `{"plugins": [`)
	man, err := LoadManifest(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if man != nil {
		t.Fatal("malformed manifest should yield nil")
	}
}

func TestLoadManifestValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty name", `{"plugins":[{"name":"","path":"a.so","enabled":true}]}`},
		{"duplicate name", `{"plugins":[{"name":"a","path":"a.so","enabled":true},{"name":"a","path":"b.so","enabled":true}]}`},
		{"unknown trust", `{"plugins":[{"name":"a","path":"a.so","enabled":true,"trust":"sandboxed"}]}`},
		{"unknown capability", `{"plugins":[{"name":"a","path":"a.so","enabled":true,"capabilities":["teleport"]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeManifestFile(t, t.TempDir(), tc.content)
			if _, err := LoadManifest(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	path := writeManifestFile(t, t.TempDir(),
		`{"plugins":[{"name":"pack","path":"pack.so","enabled":true}]}`)
	man, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry := man.Entry("pack")
	if entry == nil {
		t.Fatal("entry not found")
	}
	if entry.Trust != TrustFull {
		t.Errorf("default trust = %q, want %q", entry.Trust, TrustFull)
	}
}

func TestManifestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, `{
		"disable_builtins": ["analytics"],
		"plugins": [
			{"name":"audio","path":"audio.so","enabled":true,"capabilities":["world","events"],"provides_features":["audio.mixer"]},
			{"name":"pack","path":"pack.so","enabled":false,"trust":"isolated"}
		]
	}`)

	man, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	man.Entry("pack").Enabled = true
	if err := man.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !again.Entry("pack").Enabled {
		t.Error("flipped enabled flag did not persist")
	}
	if again.Entry("pack").Trust != TrustIsolated {
		t.Error("trust lost across save")
	}
	if !reflect.DeepEqual(again.Entry("audio").Capabilities, []Capability{CapWorld, CapEvents}) {
		t.Errorf("capabilities lost across save: %v", again.Entry("audio").Capabilities)
	}
	if !again.IsBuiltinDisabled("analytics") {
		t.Error("disable_builtins lost across save")
	}
}

func TestApplyDynamicToggles(t *testing.T) {
	man := &Manifest{
		Plugins: []ManifestEntry{
			{Name: "audio", Enabled: true},
			{Name: "pack", Enabled: false},
			{Name: "debug", Enabled: true},
		},
	}

	outcome := ApplyDynamicToggles(man, []DynamicToggle{
		{Name: "pack", NewEnabled: true},
		{Name: "debug", NewEnabled: false},
		{Name: "audio", NewEnabled: true}, // already enabled; no change
		{Name: "ghost", NewEnabled: true}, // not in manifest
	})

	if !outcome.Changed {
		t.Error("outcome should report change")
	}
	if !reflect.DeepEqual(outcome.Enabled, []string{"pack"}) {
		t.Errorf("Enabled = %v, want [pack]", outcome.Enabled)
	}
	if !reflect.DeepEqual(outcome.Disabled, []string{"debug"}) {
		t.Errorf("Disabled = %v, want [debug]", outcome.Disabled)
	}
	if !reflect.DeepEqual(outcome.Missing, []string{"ghost"}) {
		t.Errorf("Missing = %v, want [ghost]", outcome.Missing)
	}
	if !man.Entry("pack").Enabled || man.Entry("debug").Enabled {
		t.Error("entry flags not flipped in place")
	}
}

func TestApplyDynamicTogglesDedup(t *testing.T) {
	man := &Manifest{Plugins: []ManifestEntry{{Name: "pack", Enabled: false}}}

	// Last write wins for repeated names.
	outcome := ApplyDynamicToggles(man, []DynamicToggle{
		{Name: "pack", NewEnabled: true},
		{Name: "pack", NewEnabled: false},
	})
	if outcome.Changed {
		t.Error("net no-op toggles must not report change")
	}
	if man.Entry("pack").Enabled {
		t.Error("entry should keep its original state")
	}
}

func TestApplyDynamicTogglesEmpty(t *testing.T) {
	man := &Manifest{Plugins: []ManifestEntry{{Name: "pack", Enabled: true}}}
	outcome := ApplyDynamicToggles(man, nil)
	if outcome.Changed || len(outcome.Enabled)+len(outcome.Disabled)+len(outcome.Missing) != 0 {
		t.Errorf("empty toggle batch should be a no-op, got %+v", outcome)
	}
}

func TestApplyBuiltinToggles(t *testing.T) {
	man := &Manifest{DisableBuiltins: []string{"analytics"}}

	outcome := ApplyBuiltinToggles(man, []BuiltinToggle{
		{Name: "analytics", Disable: false},
		{Name: "overlay", Disable: true},
		{Name: "overlay", Disable: true}, // repeat collapses
	})
	if !outcome.Changed {
		t.Error("outcome should report change")
	}
	if !reflect.DeepEqual(outcome.Enabled, []string{"analytics"}) {
		t.Errorf("Enabled = %v, want [analytics]", outcome.Enabled)
	}
	if !reflect.DeepEqual(outcome.Disabled, []string{"overlay"}) {
		t.Errorf("Disabled = %v, want [overlay]", outcome.Disabled)
	}
	if !reflect.DeepEqual(man.DisableBuiltins, []string{"overlay"}) {
		t.Errorf("DisableBuiltins = %v, want [overlay]", man.DisableBuiltins)
	}

	// Disabling what is already disabled is a no-op.
	outcome = ApplyBuiltinToggles(man, []BuiltinToggle{{Name: "overlay", Disable: true}})
	if outcome.Changed {
		t.Error("redundant disable must not report change")
	}
}
