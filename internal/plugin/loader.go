package plugin

import (
	"fmt"
	goplugin "plugin"
)

// library wraps an open shared-object handle. Go never unmaps a loaded
// plugin, so the handle exists to make teardown ordering explicit rather
// than to free anything: slots drop their plugin instance first, then
// this handle.
type library struct {
	handle *goplugin.Plugin
	path   string
}

// Loader opens plugin artifacts and validates their exported contract
// before any plugin code beyond the entry symbol is touched.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Open loads the artifact at path, resolves the entry symbol, and checks
// the export. On an API version mismatch the constructor is never called,
// so an incompatible plugin is rejected without being instantiated.
func (l *Loader) Open(path string) (Plugin, *library, error) {
	handle, err := goplugin.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	sym, err := handle.Lookup(EntrySymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrNoEntrySymbol)
	}
	export, ok := sym.(*Export)
	if !ok {
		return nil, nil, fmt.Errorf("%s: symbol %s has type %T, want *plugin.Export: %w",
			path, EntrySymbol, sym, ErrNoEntrySymbol)
	}
	p, err := validateExport(export, path)
	if err != nil {
		return nil, nil, err
	}
	return p, &library{handle: handle, path: path}, nil
}

// validateExport enforces the ABI contract on a resolved export. Version
// is checked before New is invoked.
func validateExport(export *Export, path string) (Plugin, error) {
	if export.APIVersion != APIVersion {
		return nil, fmt.Errorf("%s: plugin built against API %d, host exports %d: %w",
			path, export.APIVersion, APIVersion, ErrAPIVersionMismatch)
	}
	if export.New == nil {
		return nil, fmt.Errorf("%s: export has nil constructor: %w", path, ErrNilPlugin)
	}
	p := export.New()
	if p == nil {
		return nil, fmt.Errorf("%s: constructor returned nil: %w", path, ErrNilPlugin)
	}
	return p, nil
}
