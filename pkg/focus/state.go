package focus

// State is a step of a focus capture.
type State int

const (
	StateIdle State = iota
	StateFocusing
	StateScoring
	StateApplying
	StateCapturing
	StateDone
	StateFailed
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateFocusing:  "focusing",
	StateScoring:   "scoring",
	StateApplying:  "applying",
	StateCapturing: "capturing",
	StateDone:      "done",
	StateFailed:    "failed",
	StateCancelled: "cancelled",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// transitions lists the successors of each non-terminal state, apart from
// failed and cancelled which every non-terminal state may reach.
var transitions = map[State][]State{
	StateIdle:      {StateFocusing},
	StateFocusing:  {StateScoring, StateCapturing},
	StateScoring:   {StateScoring, StateApplying},
	StateApplying:  {StateCapturing},
	StateCapturing: {StateDone},
}

// CanTransition reports whether a capture may move from s to next.
func (s State) CanTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateFailed || next == StateCancelled {
		return true
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
