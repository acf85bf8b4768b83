package engine

import "fmt"

// EventKind discriminates the event payloads plugins can observe or emit.
type EventKind string

// Event kinds routed through the world's event queue.
const (
	EventScriptMessage EventKind = "script_message"
	EventEntitySpawned EventKind = "entity_spawned"
	EventEntityRemoved EventKind = "entity_removed"
	EventAssetReloaded EventKind = "asset_reloaded"
)

// Event is a single occurrence routed to every active plugin once per frame.
// Events emitted during a dispatch pass are queued and delivered as one
// batch on the next HandleEvents pass, preserving emission order.
type Event struct {
	Kind    EventKind
	Entity  EntityID
	Message string
}

func (e Event) String() string {
	switch e.Kind {
	case EventScriptMessage:
		return fmt.Sprintf("script: %s", e.Message)
	case EventEntitySpawned:
		return fmt.Sprintf("spawned entity %d", e.Entity)
	case EventEntityRemoved:
		return fmt.Sprintf("removed entity %d", e.Entity)
	case EventAssetReloaded:
		return fmt.Sprintf("asset reloaded: %s", e.Message)
	default:
		return string(e.Kind)
	}
}

// ScriptMessage builds the host-routed message event plugins emit most.
func ScriptMessage(text string) Event {
	return Event{Kind: EventScriptMessage, Message: text}
}
