package tremor

// State is the playback state of an Engine
type State int

const (
	// Stopped is the initial state, and the state reached at the end of the
	// extent or after a reset
	Stopped State = iota

	// Playing advances the cursor on every tick
	Playing

	// Paused holds the cursor in place. Scrubbing always pauses
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}
