package broker

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// validTransition lists the edges of the connection lifecycle.
func validTransition(from, to State) bool {
	switch {
	case from == Disconnected && to == Connecting:
		return true
	case from == Connecting && (to == Connected || to == Disconnected):
		return true
	case from == Connected && to == Disconnected:
		return true
	}
	return false
}

// path returns the states to step through to reach to from from. Reaching
// Connected from Disconnected goes through Connecting. An invalid or empty
// move returns nil.
func path(from, to State) []State {
	if from == to {
		return nil
	}
	if validTransition(from, to) {
		return []State{to}
	}
	if from == Disconnected && to == Connected {
		return []State{Connecting, Connected}
	}
	return nil
}
