// game/writeset.go
package game

// WriteSet is the pending update of one intent: a flat mapping of dotted
// document field paths to new values (for example
// "modules.energy.puzzles.ACT1_ENERGY_CIRCUITS.state" -> "solved").
// Everything an intent changes is folded into a single WriteSet and
// committed atomically; readers never observe a partial application.
type WriteSet map[string]any

// NewWriteSet returns an empty accumulator.
func NewWriteSet() WriteSet {
	return make(WriteSet)
}

// Set records a pending field update, overwriting any earlier value for the
// same path. Effects are applied in order, so later effects win.
func (w WriteSet) Set(path string, value any) {
	w[path] = value
}

// Get returns the pending value for a path, if one was written.
func (w WriteSet) Get(path string) (any, bool) {
	v, ok := w[path]
	return v, ok
}

// Empty reports whether the intent produced no writes at all.
func (w WriteSet) Empty() bool {
	return len(w) == 0
}
