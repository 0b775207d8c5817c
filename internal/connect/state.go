package connect

// State is the lifecycle state of a connection request
type State int

const (
	StateIdle State = iota
	StateRequested
	StateAvailable
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// next returns the state after kind is observed in s.
// Lost and Unavailable settle back to Idle; informational events keep s.
func (s State) next(kind EventKind) State {
	switch kind {
	case EventAvailable:
		if s == StateRequested || s == StateAvailable {
			return StateAvailable
		}
	case EventLost:
		if s == StateAvailable {
			return StateIdle
		}
	case EventUnavailable:
		if s == StateRequested {
			return StateIdle
		}
	}
	return s
}
