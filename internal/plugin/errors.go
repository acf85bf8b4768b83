package plugin

import "errors"

// Plugin runtime errors.
var (
	// ErrDuplicateName is returned when registering a plugin whose name is
	// already taken in this manager.
	ErrDuplicateName = errors.New("plugin name already registered")

	// ErrPluginNotFound is returned when an operation names a plugin the
	// manager is not tracking.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrAPIVersionMismatch is returned when a dynamic library's exported
	// API version differs from the host's compiled-in version.
	ErrAPIVersionMismatch = errors.New("plugin API version mismatch")

	// ErrNoEntrySymbol is returned when a shared object does not export a
	// usable entry symbol.
	ErrNoEntrySymbol = errors.New("plugin entry symbol missing or malformed")

	// ErrNilPlugin is returned when an entry point produces no instance.
	ErrNilPlugin = errors.New("plugin entry point returned nil")

	// ErrDependencyNotFound is returned when a plugin's declared dependency
	// is not loaded at registration time.
	ErrDependencyNotFound = errors.New("plugin dependency not loaded")

	// ErrMissingFeatures is returned when a manifest entry requires
	// features nothing has published.
	ErrMissingFeatures = errors.New("required features not present")

	// ErrManifestUnavailable is returned when a manifest operation runs
	// without a loaded manifest (missing file or earlier parse failure).
	ErrManifestUnavailable = errors.New("plugin manifest not loaded")

	// ErrHostBinaryNotFound is returned when the isolated host executable
	// cannot be located next to the engine binary.
	ErrHostBinaryNotFound = errors.New("isolated host binary not found")

	// ErrHostTerminated is returned when talking to an isolated host whose
	// process has already exited.
	ErrHostTerminated = errors.New("isolated plugin host already terminated")
)
