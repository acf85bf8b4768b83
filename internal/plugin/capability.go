package plugin

import (
	"fmt"
	"sync"
	"time"
)

// Capability names a subsystem a plugin is expected to declare before
// touching it. Declared capabilities come from the manifest (or the
// default set); the Tracker records accesses made outside the declared
// set.
type Capability string

// Known capabilities.
const (
	CapRenderer  Capability = "renderer"
	CapWorld     Capability = "world"
	CapAssets    Capability = "assets"
	CapInput     Capability = "input"
	CapScripts   Capability = "scripts"
	CapAnalytics Capability = "analytics"
	CapTime      Capability = "time"
	CapEvents    Capability = "events"
	CapAll       Capability = "all"
)

var knownCapabilities = map[Capability]bool{
	CapRenderer:  true,
	CapWorld:     true,
	CapAssets:    true,
	CapInput:     true,
	CapScripts:   true,
	CapAnalytics: true,
	CapTime:      true,
	CapEvents:    true,
	CapAll:       true,
}

// ParseCapability maps a label to a known capability.
func ParseCapability(label string) (Capability, error) {
	cap := Capability(label)
	if !knownCapabilities[cap] {
		return "", fmt.Errorf("unknown capability %q", label)
	}
	return cap, nil
}

// DefaultCapabilities is the set granted to plugins that declare nothing:
// everything except scripts and analytics, which must be asked for.
func DefaultCapabilities() []Capability {
	return []Capability{CapRenderer, CapWorld, CapAssets, CapInput, CapEvents, CapTime}
}

// AllCapabilities lists every concrete capability (excluding the "all"
// shorthand).
func AllCapabilities() []Capability {
	return []Capability{
		CapRenderer, CapWorld, CapAssets, CapInput,
		CapScripts, CapAnalytics, CapTime, CapEvents,
	}
}

// capSet is the resolved form a dispatch pass checks against.
type capSet map[Capability]struct{}

// newCapSet resolves a declared list: empty means the default set, the
// "all" shorthand expands to every capability.
func newCapSet(declared []Capability) capSet {
	if len(declared) == 0 {
		declared = DefaultCapabilities()
	}
	set := make(capSet, len(declared))
	for _, cap := range declared {
		if cap == CapAll {
			return newCapSet(AllCapabilities())
		}
		set[cap] = struct{}{}
	}
	return set
}

func allCapSet() capSet {
	return newCapSet(AllCapabilities())
}

func (s capSet) contains(cap Capability) bool {
	_, ok := s[cap]
	return ok
}

// CapabilityError reports access to a subsystem outside the active
// plugin's declared capability set.
type CapabilityError struct {
	Plugin     string
	Capability Capability
}

func (e *CapabilityError) Error() string {
	if e.Plugin == "" {
		return fmt.Sprintf("capability %q not declared", e.Capability)
	}
	return fmt.Sprintf("plugin %q: capability %q not declared", e.Plugin, e.Capability)
}

// ViolationLog summarizes one plugin's out-of-contract accesses.
type ViolationLog struct {
	Count          uint64
	LastCapability Capability
	LastTimestamp  time.Time
}

// ViolationEvent is one recorded out-of-contract access, newest first in
// the tracker's drain queue.
type ViolationEvent struct {
	Plugin     string
	Capability Capability
	Timestamp  time.Time
}

// trackerEventCapacity bounds the retained recent-violation queue.
const trackerEventCapacity = 64

// Tracker records capability violations per plugin. It is shared by
// reference between the manager and every Context; all methods are safe
// for concurrent use, although dispatch itself is single-threaded.
type Tracker struct {
	mu      sync.Mutex
	metrics map[string]*ViolationLog
	events  []ViolationEvent
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{metrics: make(map[string]*ViolationLog)}
}

// Register ensures a plugin has a (possibly empty) metrics entry so the
// host UI can list it before any violation occurs.
func (t *Tracker) Register(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.metrics[name]; !ok {
		t.metrics[name] = &ViolationLog{}
	}
}

// LogViolation records an out-of-contract access.
func (t *Tracker) LogViolation(name string, cap Capability) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	entry, ok := t.metrics[name]
	if !ok {
		entry = &ViolationLog{}
		t.metrics[name] = entry
	}
	entry.Count++
	entry.LastCapability = cap
	entry.LastTimestamp = now

	t.events = append([]ViolationEvent{{Plugin: name, Capability: cap, Timestamp: now}}, t.events...)
	if len(t.events) > trackerEventCapacity {
		t.events = t.events[:trackerEventCapacity]
	}
}

// Snapshot returns a copy of the per-plugin violation metrics.
func (t *Tracker) Snapshot() map[string]ViolationLog {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := make(map[string]ViolationLog, len(t.metrics))
	for name, entry := range t.metrics {
		snapshot[name] = *entry
	}
	return snapshot
}

// DrainEvents removes and returns the recent violation events, newest
// first.
func (t *Tracker) DrainEvents() []ViolationEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	events := t.events
	t.events = nil
	return events
}
