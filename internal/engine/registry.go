package engine

// MaterialRegistry maps material names to their declared shader key.
type MaterialRegistry struct {
	materials map[string]string
}

// NewMaterialRegistry returns an empty material registry.
func NewMaterialRegistry() *MaterialRegistry {
	return &MaterialRegistry{materials: make(map[string]string)}
}

// Register records a material with its shader key, replacing any previous
// registration under the same name.
func (m *MaterialRegistry) Register(name, shader string) {
	m.materials[name] = shader
}

// Shader returns the shader key for a material.
func (m *MaterialRegistry) Shader(name string) (string, bool) {
	shader, ok := m.materials[name]
	return shader, ok
}

// Len returns the number of registered materials.
func (m *MaterialRegistry) Len() int {
	return len(m.materials)
}

// MeshRegistry maps mesh names to the material each was registered with.
type MeshRegistry struct {
	meshes map[string]string
}

// NewMeshRegistry returns an empty mesh registry.
func NewMeshRegistry() *MeshRegistry {
	return &MeshRegistry{meshes: make(map[string]string)}
}

// Register records a mesh bound to a material name.
func (m *MeshRegistry) Register(name, material string) {
	m.meshes[name] = material
}

// Material returns the material a mesh was registered with.
func (m *MeshRegistry) Material(name string) (string, bool) {
	material, ok := m.meshes[name]
	return material, ok
}

// Len returns the number of registered meshes.
func (m *MeshRegistry) Len() int {
	return len(m.meshes)
}

// EnvironmentRegistry holds named environment presets (sky, fog, ambient
// light) selectable by the renderer.
type EnvironmentRegistry struct {
	presets map[string]EnvironmentPreset
	active  string
}

// EnvironmentPreset is one selectable environment configuration.
type EnvironmentPreset struct {
	SkyColor     [3]float64
	AmbientLight float64
}

// NewEnvironmentRegistry returns a registry with no presets.
func NewEnvironmentRegistry() *EnvironmentRegistry {
	return &EnvironmentRegistry{presets: make(map[string]EnvironmentPreset)}
}

// Register records a preset under a name.
func (e *EnvironmentRegistry) Register(name string, preset EnvironmentPreset) {
	e.presets[name] = preset
}

// Activate selects a registered preset; unknown names are ignored.
func (e *EnvironmentRegistry) Activate(name string) {
	if _, ok := e.presets[name]; ok {
		e.active = name
	}
}

// Active returns the currently selected preset name.
func (e *EnvironmentRegistry) Active() string {
	return e.active
}

// Preset returns a preset by name.
func (e *EnvironmentRegistry) Preset(name string) (EnvironmentPreset, bool) {
	preset, ok := e.presets[name]
	return preset, ok
}
