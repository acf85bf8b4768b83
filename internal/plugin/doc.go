// Package plugin implements the Kestrel plugin runtime.
//
// Plugins extend the running engine without the engine exposing its
// internals: every lifecycle call receives a short-lived Context that
// mediates access to the world, renderer, asset manager, input, the
// material/mesh/environment registries, and time. Contexts are built fresh
// for each call and must never be retained.
//
// # Plugin variants
//
// Three kinds of plugin implement the same Plugin interface:
//
//   - Builtin plugins, compiled into the host and constructed from a
//     BuiltinFactory.
//   - Dynamic plugins, Go shared objects loaded at runtime. A .so must
//     export the EntrySymbol ("KestrelPlugin") as an Export whose
//     APIVersion matches the host's APIVersion exactly.
//   - Isolated plugins, run in a separate kestrel-plugin-host process for
//     code the host does not trust in-process (see IsolatedProxy).
//
// The luaplug subpackage adds a fourth, script-backed variant on top of the
// same interface.
//
// # Lifecycle
//
// The Manager dispatches Build once at registration, then Update,
// FixedUpdate, and HandleEvents once per frame pass in registration order,
// and Shutdown once at teardown. Per-plugin errors during a pass are logged
// and isolated; a panic marks the plugin failed and it is skipped on
// subsequent passes. A Build failure aborts that plugin's registration
// only.
//
// # Manifest
//
// Which dynamic plugins load, and which builtins are suppressed, comes
// from a JSON manifest:
//
//	{
//	  "disable_builtins": ["audio"],
//	  "plugins": [
//	    {"name": "alpha", "path": "alpha.so", "enabled": true}
//	  ]
//	}
//
// The Host owns the manifest lifecycle: load at startup, toggle
// application with atomic save-back, and wholesale reload from disk.
//
// # Capabilities and features
//
// Each plugin declares the capabilities it intends to use (renderer,
// world, assets, ...). Context accessors check the active plugin's set and
// record out-of-contract access in the shared Tracker; violations are
// observable, not fatal, unless the embedding host decides otherwise.
// Plugins publish feature strings to the shared FeatureRegistry to
// advertise optional functionality to the rest of the system.
package plugin
