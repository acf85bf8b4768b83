package engine

// EntityID identifies an entity in the world. IDs are never reused within a
// World's lifetime.
type EntityID uint64

// Transform is the spatial component every spawned entity carries.
type Transform struct {
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
}

// World is the entity store plugins read and mutate through the Context.
// It also owns the frame event queue: events pushed during a dispatch pass
// are drained once per frame and fanned back out to plugins as a batch.
type World struct {
	nextID     EntityID
	transforms map[EntityID]Transform
	tags       map[EntityID]string
	events     []Event
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{
		nextID:     1,
		transforms: make(map[EntityID]Transform),
		tags:       make(map[EntityID]string),
	}
}

// Spawn creates an entity with the given transform and returns its ID.
func (w *World) Spawn(t Transform) EntityID {
	id := w.nextID
	w.nextID++
	w.transforms[id] = t
	w.PushEvent(Event{Kind: EventEntitySpawned, Entity: id})
	return id
}

// Despawn removes an entity. Removing an unknown ID is a no-op.
func (w *World) Despawn(id EntityID) {
	if _, ok := w.transforms[id]; !ok {
		return
	}
	delete(w.transforms, id)
	delete(w.tags, id)
	w.PushEvent(Event{Kind: EventEntityRemoved, Entity: id})
}

// Transform returns an entity's transform.
func (w *World) Transform(id EntityID) (Transform, bool) {
	t, ok := w.transforms[id]
	return t, ok
}

// SetTransform replaces an entity's transform. Unknown IDs are ignored.
func (w *World) SetTransform(id EntityID, t Transform) {
	if _, ok := w.transforms[id]; ok {
		w.transforms[id] = t
	}
}

// Tag attaches a scene tag to an entity.
func (w *World) Tag(id EntityID, tag string) {
	if _, ok := w.transforms[id]; ok {
		w.tags[id] = tag
	}
}

// TagOf returns an entity's scene tag, if any.
func (w *World) TagOf(id EntityID) (string, bool) {
	tag, ok := w.tags[id]
	return tag, ok
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.transforms)
}

// PushEvent queues an event for the next HandleEvents pass.
func (w *World) PushEvent(event Event) {
	w.events = append(w.events, event)
}

// DrainEvents removes and returns all queued events in emission order.
func (w *World) DrainEvents() []Event {
	events := w.events
	w.events = nil
	return events
}
