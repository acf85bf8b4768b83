package plugin

// Trust selects a plugin's execution mode.
type Trust string

// Trust modes.
const (
	// TrustFull runs the plugin in-process. Isolation between plugins is
	// by convention only.
	TrustFull Trust = "full"

	// TrustIsolated runs the plugin in a separate kestrel-plugin-host
	// process.
	TrustIsolated Trust = "isolated"
)

// StateKind classifies a plugin's load status.
type StateKind int

// Plugin status states.
const (
	// StateLoaded - plugin built successfully and receives dispatches.
	StateLoaded StateKind = iota

	// StateDisabled - plugin was skipped deliberately (manifest toggle,
	// missing artifact). Reason explains why.
	StateDisabled

	// StateFailed - load, build, or a later panic failed the plugin.
	// Reason carries the failure message.
	StateFailed
)

// String returns a string representation of the state.
func (k StateKind) String() string {
	switch k {
	case StateLoaded:
		return "loaded"
	case StateDisabled:
		return "disabled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the per-plugin record the manager keeps for the host UI.
type Status struct {
	Name         string
	Version      string
	Dynamic      bool
	Provides     []string
	DependsOn    []string
	Capabilities []Capability
	Trust        Trust
	State        StateKind
	Reason       string
}
