package plugin

import (
	"errors"
	"testing"
)

func TestParseCapability(t *testing.T) {
	cap, err := ParseCapability("renderer")
	if err != nil {
		t.Fatalf("parse renderer: %v", err)
	}
	if cap != CapRenderer {
		t.Errorf("got %q, want %q", cap, CapRenderer)
	}
	if _, err := ParseCapability("teleport"); err == nil {
		t.Error("unknown capability should not parse")
	}
}

func TestCapSetDefaultsAndAll(t *testing.T) {
	defaults := newCapSet(nil)
	if !defaults.contains(CapWorld) {
		t.Error("empty declaration should grant the default set")
	}
	if defaults.contains(CapScripts) {
		t.Error("default set must not include scripts")
	}

	everything := newCapSet([]Capability{CapAll})
	for _, cap := range AllCapabilities() {
		if !everything.contains(cap) {
			t.Errorf("all-grant missing %q", cap)
		}
	}

	narrow := newCapSet([]Capability{CapWorld})
	if narrow.contains(CapRenderer) {
		t.Error("explicit declaration must not widen to defaults")
	}
}

func TestContextGatingRecordsViolation(t *testing.T) {
	m := NewManager()
	ctx, _ := newTestContext(m)

	ctx.setActivePlugin("narrow", newCapSet([]Capability{CapWorld}), TrustFull)
	defer ctx.clearActivePlugin()

	if _, err := ctx.World(); err != nil {
		t.Fatalf("granted capability rejected: %v", err)
	}

	_, err := ctx.Renderer()
	if err == nil {
		t.Fatal("ungranted capability must be withheld")
	}
	var capErr *CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("want *CapabilityError, got %T", err)
	}
	if capErr.Plugin != "narrow" || capErr.Capability != CapRenderer {
		t.Errorf("error identifies %s/%s, want narrow/renderer", capErr.Plugin, capErr.Capability)
	}

	metrics := m.CapabilityMetrics()
	log, ok := metrics["narrow"]
	if !ok {
		t.Fatal("violation not recorded in tracker")
	}
	if log.Count != 1 {
		t.Errorf("violation count = %d, want 1", log.Count)
	}
	if log.LastCapability != CapRenderer {
		t.Errorf("last capability = %q, want renderer", log.LastCapability)
	}
}

func TestContextUnscopedHasAllCapabilities(t *testing.T) {
	m := NewManager()
	ctx, _ := newTestContext(m)

	if _, err := ctx.Renderer(); err != nil {
		t.Errorf("unscoped context should reach the renderer: %v", err)
	}
	if _, err := ctx.EnvironmentRegistry(); err != nil {
		t.Errorf("unscoped context should reach the environment registry: %v", err)
	}
	if len(m.CapabilityMetrics()) != 0 {
		t.Error("host access must not record violations")
	}
}

func TestTrackerDrainNewestFirst(t *testing.T) {
	tr := NewTracker()
	tr.LogViolation("a", CapRenderer)
	tr.LogViolation("a", CapAssets)
	tr.LogViolation("b", CapInput)

	events := tr.DrainEvents()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Plugin != "b" || events[0].Capability != CapInput {
		t.Errorf("events[0] = %+v, want newest first", events[0])
	}
	if events[2].Capability != CapRenderer {
		t.Errorf("events[2] = %+v, want oldest last", events[2])
	}

	if got := tr.DrainEvents(); len(got) != 0 {
		t.Error("drain must clear the queue")
	}
	if tr.Snapshot()["a"].Count != 2 {
		t.Error("metrics must survive a drain")
	}
}

func TestTrackerQueueBounded(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < trackerEventCapacity+10; i++ {
		tr.LogViolation("spammy", CapRenderer)
	}
	if got := len(tr.DrainEvents()); got != trackerEventCapacity {
		t.Errorf("queue length = %d, want %d", got, trackerEventCapacity)
	}
	if tr.Snapshot()["spammy"].Count != uint64(trackerEventCapacity+10) {
		t.Error("counter must not be capped with the queue")
	}
}
