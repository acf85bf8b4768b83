// Package engine holds the host subsystem types the plugin runtime mediates
// access to: the entity world, renderer, asset manager, input state, the
// material/mesh/environment registries, and frame time.
//
// These types are boundary contracts. The plugin runtime never reaches into
// their internals; plugins see them only through a plugin.Context built for
// the duration of a single lifecycle call. Rendering, asset decoding, and
// world simulation live behind these accessors and are not part of this
// package's concern.
package engine
