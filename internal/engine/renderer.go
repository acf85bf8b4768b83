package engine

// Renderer is the draw-side boundary. Plugins never submit draw calls; they
// can only poke the dirty flags the real render passes consume.
type Renderer struct {
	shadowSettingsDirty bool
	lightingDirty       bool
	frameCount          uint64
}

// NewRenderer returns a renderer boundary with clean flags.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// MarkShadowSettingsDirty requests a shadow-pass settings rebuild.
func (r *Renderer) MarkShadowSettingsDirty() {
	r.shadowSettingsDirty = true
}

// MarkLightingDirty requests a light-cluster rebuild.
func (r *Renderer) MarkLightingDirty() {
	r.lightingDirty = true
}

// TakeShadowSettingsDirty consumes the shadow dirty flag.
func (r *Renderer) TakeShadowSettingsDirty() bool {
	dirty := r.shadowSettingsDirty
	r.shadowSettingsDirty = false
	return dirty
}

// TakeLightingDirty consumes the lighting dirty flag.
func (r *Renderer) TakeLightingDirty() bool {
	dirty := r.lightingDirty
	r.lightingDirty = false
	return dirty
}

// AdvanceFrame bumps the presented-frame counter.
func (r *Renderer) AdvanceFrame() {
	r.frameCount++
}

// FrameCount returns the number of presented frames.
func (r *Renderer) FrameCount() uint64 {
	return r.frameCount
}
