package engine

// Input is the per-frame input snapshot. The windowing layer writes it; a
// plugin may read pressed state or inject synthetic actions for tooling.
type Input struct {
	pressed map[string]bool
}

// NewInput returns an input snapshot with nothing pressed.
func NewInput() *Input {
	return &Input{pressed: make(map[string]bool)}
}

// SetPressed records an action's pressed state for this frame.
func (in *Input) SetPressed(action string, down bool) {
	if down {
		in.pressed[action] = true
		return
	}
	delete(in.pressed, action)
}

// Pressed reports whether an action is down this frame.
func (in *Input) Pressed(action string) bool {
	return in.pressed[action]
}

// Clear resets the snapshot at frame end.
func (in *Input) Clear() {
	clear(in.pressed)
}
