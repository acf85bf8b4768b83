package engine

import "time"

// Time is the read-only frame clock handed to plugins.
type Time struct {
	delta   time.Duration
	elapsed time.Duration
	frame   uint64
}

// NewTime returns a zeroed clock.
func NewTime() *Time {
	return &Time{}
}

// Advance moves the clock forward by one frame's delta.
func (t *Time) Advance(delta time.Duration) {
	if delta < 0 {
		delta = 0
	}
	t.delta = delta
	t.elapsed += delta
	t.frame++
}

// Delta returns the last frame's wall-clock delta.
func (t *Time) Delta() time.Duration {
	return t.delta
}

// DeltaSeconds returns the last frame's delta in seconds.
func (t *Time) DeltaSeconds() float64 {
	return t.delta.Seconds()
}

// Elapsed returns total accumulated time.
func (t *Time) Elapsed() time.Duration {
	return t.elapsed
}

// Frame returns the number of advanced frames.
func (t *Time) Frame() uint64 {
	return t.frame
}
