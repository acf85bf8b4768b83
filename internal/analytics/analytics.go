// Package analytics is the engine's builtin frame-accounting plugin. It
// rides the normal plugin lifecycle, counting frames, fixed steps, and
// observed events, and publishes the analytics.frames feature so other
// plugins can depend on counters being live.
package analytics

import (
	"sync"

	"github.com/kestrel-engine/kestrel/internal/engine"
	"github.com/kestrel-engine/kestrel/internal/plugin"
)

// FeatureFrames is published once the plugin is resident.
const FeatureFrames = "analytics.frames"

// Snapshot is a point-in-time copy of the collected counters.
type Snapshot struct {
	Frames         uint64
	FixedSteps     uint64
	Events         uint64
	ScriptMessages uint64
	Elapsed        float64
}

// Plugin collects per-frame counters. Counter reads may come from other
// goroutines (a stats overlay, a test), so access is mutex-guarded even
// though dispatch itself is single-threaded.
type Plugin struct {
	plugin.Base

	mu   sync.Mutex
	snap Snapshot
}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Name() string    { return "analytics" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Build(ctx *plugin.Context) error {
	ctx.Features().Register(FeatureFrames)
	return nil
}

func (p *Plugin) Update(_ *plugin.Context, dt float64) error {
	p.mu.Lock()
	p.snap.Frames++
	p.snap.Elapsed += dt
	p.mu.Unlock()
	return nil
}

func (p *Plugin) FixedUpdate(_ *plugin.Context, _ float64) error {
	p.mu.Lock()
	p.snap.FixedSteps++
	p.mu.Unlock()
	return nil
}

func (p *Plugin) OnEvents(_ *plugin.Context, events []engine.Event) error {
	p.mu.Lock()
	p.snap.Events += uint64(len(events))
	for _, ev := range events {
		if ev.Kind == engine.EventScriptMessage {
			p.snap.ScriptMessages++
		}
	}
	p.mu.Unlock()
	return nil
}

// Counters returns a copy of the current totals.
func (p *Plugin) Counters() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}
