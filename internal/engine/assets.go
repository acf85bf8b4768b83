package engine

import "fmt"

// AssetManager tracks retained atlas references. Decoding and GPU upload
// happen elsewhere; plugins only retain and release by key.
type AssetManager struct {
	atlasRefs  map[string]int
	atlasPaths map[string]string
}

// NewAssetManager returns an asset manager with no retained atlases.
func NewAssetManager() *AssetManager {
	return &AssetManager{
		atlasRefs:  make(map[string]int),
		atlasPaths: make(map[string]string),
	}
}

// RetainAtlas increments the reference count for an atlas key, recording
// its backing path the first time. A later retain with a conflicting path
// is an error: two owners disagreeing on the artifact is a content bug.
func (a *AssetManager) RetainAtlas(key, path string) error {
	if existing, ok := a.atlasPaths[key]; ok && path != "" && existing != "" && existing != path {
		return fmt.Errorf("atlas %q already retained from %q, refusing %q", key, existing, path)
	}
	if path != "" {
		a.atlasPaths[key] = path
	}
	a.atlasRefs[key]++
	return nil
}

// ReleaseAtlas decrements an atlas reference count, dropping the record at
// zero. Releasing an unretained key is a no-op.
func (a *AssetManager) ReleaseAtlas(key string) {
	refs, ok := a.atlasRefs[key]
	if !ok {
		return
	}
	if refs <= 1 {
		delete(a.atlasRefs, key)
		delete(a.atlasPaths, key)
		return
	}
	a.atlasRefs[key] = refs - 1
}

// AtlasRefCount returns the retain count for a key.
func (a *AssetManager) AtlasRefCount(key string) int {
	return a.atlasRefs[key]
}

// AtlasPath returns the recorded backing path for a retained atlas.
func (a *AssetManager) AtlasPath(key string) (string, bool) {
	path, ok := a.atlasPaths[key]
	return path, ok
}
