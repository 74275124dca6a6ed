package chat

// State - protocol state of client session.
type State int32

const (
	// StateConnected - connection is accepted, negotiation is not started yet.
	StateConnected State = iota
	// StateNegotiating - client is asked for a unique name.
	StateNegotiating
	// StateActive - client is named and its messages are relayed.
	StateActive
	// StateClosed - session is over, name and channel are released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateNegotiating:
		return "negotiating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
