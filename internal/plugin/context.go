package plugin

import "github.com/kestrel-engine/kestrel/internal/engine"

// EmitFunc routes a plugin-emitted event into the world's frame queue.
type EmitFunc func(*engine.World, engine.Event)

// ContextInputs aggregates the subsystem borrows a Context is built over.
// Every field except Tracker is required.
type ContextInputs struct {
	Renderer    *engine.Renderer
	World       *engine.World
	Assets      *engine.AssetManager
	Input       *engine.Input
	Materials   *engine.MaterialRegistry
	Meshes      *engine.MeshRegistry
	Environment *engine.EnvironmentRegistry
	Time        *engine.Time
	Emit        EmitFunc
	Features    *FeatureRegistry
	Tracker     *Tracker
}

// Context is the per-call view a plugin gets of the host. It is built
// fresh for every lifecycle call and must never be stored; at most one
// Context exists per subsystem set at a time because dispatch is
// single-threaded.
//
// Subsystem accessors are gated by the active plugin's declared
// capabilities. An ungated access records a violation in the tracker and
// returns a *CapabilityError; the subsystem pointer is withheld.
type Context struct {
	renderer    *engine.Renderer
	world       *engine.World
	assets      *engine.AssetManager
	input       *engine.Input
	materials   *engine.MaterialRegistry
	meshes      *engine.MeshRegistry
	environment *engine.EnvironmentRegistry
	time        *engine.Time
	emit        EmitFunc
	features    *FeatureRegistry
	tracker     *Tracker

	activePlugin string
	activeCaps   capSet
	activeTrust  Trust
}

// NewContext builds a Context over the given subsystem set. Until
// setActivePlugin scopes it to a dispatched plugin, every capability is
// available (host code uses the unscoped context directly).
func NewContext(in ContextInputs) *Context {
	return &Context{
		renderer:    in.Renderer,
		world:       in.World,
		assets:      in.Assets,
		input:       in.Input,
		materials:   in.Materials,
		meshes:      in.Meshes,
		environment: in.Environment,
		time:        in.Time,
		emit:        in.Emit,
		features:    in.Features,
		tracker:     in.Tracker,
		activeCaps:  allCapSet(),
		activeTrust: TrustFull,
	}
}

// setActivePlugin scopes subsequent accessor checks to one plugin's
// declared capability set for the duration of its lifecycle call.
func (c *Context) setActivePlugin(name string, caps capSet, trust Trust) {
	c.activePlugin = name
	c.activeCaps = caps
	c.activeTrust = trust
}

// clearActivePlugin restores the unscoped (all-capability) state.
func (c *Context) clearActivePlugin() {
	c.activePlugin = ""
	c.activeCaps = allCapSet()
	c.activeTrust = TrustFull
}

// ActivePlugin returns the name of the plugin currently being dispatched,
// or "" outside a dispatch.
func (c *Context) ActivePlugin() string {
	return c.activePlugin
}

func (c *Context) require(cap Capability) error {
	if c.activeCaps.contains(cap) {
		return nil
	}
	if c.activePlugin != "" && c.tracker != nil {
		c.tracker.LogViolation(c.activePlugin, cap)
	}
	return &CapabilityError{Plugin: c.activePlugin, Capability: cap}
}

// Renderer returns the renderer boundary, gated by CapRenderer.
func (c *Context) Renderer() (*engine.Renderer, error) {
	if err := c.require(CapRenderer); err != nil {
		return nil, err
	}
	return c.renderer, nil
}

// World returns the entity world, gated by CapWorld.
func (c *Context) World() (*engine.World, error) {
	if err := c.require(CapWorld); err != nil {
		return nil, err
	}
	return c.world, nil
}

// Assets returns the asset manager, gated by CapAssets.
func (c *Context) Assets() (*engine.AssetManager, error) {
	if err := c.require(CapAssets); err != nil {
		return nil, err
	}
	return c.assets, nil
}

// Input returns the input snapshot, gated by CapInput.
func (c *Context) Input() (*engine.Input, error) {
	if err := c.require(CapInput); err != nil {
		return nil, err
	}
	return c.input, nil
}

// MaterialRegistry returns the material registry, gated by CapAssets.
func (c *Context) MaterialRegistry() (*engine.MaterialRegistry, error) {
	if err := c.require(CapAssets); err != nil {
		return nil, err
	}
	return c.materials, nil
}

// MeshRegistry returns the mesh registry, gated by CapAssets.
func (c *Context) MeshRegistry() (*engine.MeshRegistry, error) {
	if err := c.require(CapAssets); err != nil {
		return nil, err
	}
	return c.meshes, nil
}

// EnvironmentRegistry returns the environment registry, gated by
// CapRenderer (environments are a render-side concern).
func (c *Context) EnvironmentRegistry() (*engine.EnvironmentRegistry, error) {
	if err := c.require(CapRenderer); err != nil {
		return nil, err
	}
	return c.environment, nil
}

// Time returns the read-only frame clock, gated by CapTime.
func (c *Context) Time() (*engine.Time, error) {
	if err := c.require(CapTime); err != nil {
		return nil, err
	}
	return c.time, nil
}

// Features returns the append-only feature surface. Feature access is
// ungated: publishing features is the point of the registry.
func (c *Context) Features() *Features {
	return &Features{registry: c.features}
}

// EmitEvent queues an event on the world's frame queue, gated by
// CapEvents.
func (c *Context) EmitEvent(event engine.Event) error {
	if err := c.require(CapEvents); err != nil {
		return err
	}
	c.emit(c.world, event)
	return nil
}

// EmitScriptMessage is shorthand for emitting a script message event.
func (c *Context) EmitScriptMessage(text string) error {
	return c.EmitEvent(engine.ScriptMessage(text))
}

// LogViolation lets trusted host code attribute a violation to a plugin on
// its behalf (isolated proxies relaying child-side reports).
func (c *Context) LogViolation(pluginName string, cap Capability) {
	if c.tracker != nil {
		c.tracker.LogViolation(pluginName, cap)
	}
}

// Features is the append-only view of the FeatureRegistry handed to
// plugins. There is deliberately no removal API here.
type Features struct {
	registry *FeatureRegistry
}

// Register publishes a feature string.
func (f *Features) Register(feature string) {
	f.registry.Register(feature)
}

// RegisterAll publishes every feature in the list.
func (f *Features) RegisterAll(features []string) {
	f.registry.RegisterAll(features)
}

// Contains reports whether a feature has been published.
func (f *Features) Contains(feature string) bool {
	return f.registry.Contains(feature)
}

// Missing returns required features not yet published.
func (f *Features) Missing(required []string) []string {
	return f.registry.Missing(required)
}

// All returns every published feature, sorted.
func (f *Features) All() []string {
	return f.registry.All()
}
