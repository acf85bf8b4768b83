package plugin

import "github.com/kestrel-engine/kestrel/internal/engine"

// APIVersion is the host's compiled-in plugin API version. A dynamic
// library whose Export declares any other value is rejected before its
// constructor runs.
const APIVersion uint32 = 1

// EntrySymbol is the variable name a dynamic plugin shared object must
// export, typed as Export.
const EntrySymbol = "KestrelPlugin"

// Plugin is the contract every plugin variant satisfies. Implementations
// must not retain the Context or anything reached through it beyond the
// duration of a single call.
type Plugin interface {
	// Name is the plugin's unique identity within a manager.
	Name() string

	// Version is the plugin's own version string, reported in statuses.
	Version() string

	// DependsOn lists plugin names that must already be registered.
	DependsOn() []string

	// Build runs exactly once, immediately after the manager accepts the
	// plugin and before any Update. A failure aborts registration; the
	// plugin releases anything it partially acquired.
	Build(ctx *Context) error

	// Update runs once per frame with the frame's wall-clock delta in
	// seconds. Errors are logged and do not stop other plugins.
	Update(ctx *Context, dt float64) error

	// FixedUpdate runs zero or more times per frame as the fixed-step
	// accumulator produces steps. Same error policy as Update.
	FixedUpdate(ctx *Context, dt float64) error

	// OnEvents receives the frame's full event batch in emission order,
	// never before Build has completed.
	OnEvents(ctx *Context, events []engine.Event) error

	// Shutdown runs exactly once at teardown, best-effort.
	Shutdown(ctx *Context) error
}

// Export is the versioned entry point a dynamic plugin library exposes
// under EntrySymbol.
type Export struct {
	APIVersion uint32
	New        func() Plugin
}

// Base provides no-op lifecycle defaults so concrete plugins embed it and
// implement only the hooks they care about.
type Base struct{}

// Version reports the default version for plugins that don't override it.
func (Base) Version() string { return "0.1.0" }

// DependsOn reports no dependencies.
func (Base) DependsOn() []string { return nil }

// Build is a no-op.
func (Base) Build(*Context) error { return nil }

// Update is a no-op.
func (Base) Update(*Context, float64) error { return nil }

// FixedUpdate is a no-op.
func (Base) FixedUpdate(*Context, float64) error { return nil }

// OnEvents is a no-op.
func (Base) OnEvents(*Context, []engine.Event) error { return nil }

// Shutdown is a no-op.
func (Base) Shutdown(*Context) error { return nil }
