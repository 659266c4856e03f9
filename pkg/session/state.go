package session

// State is a step of the session lifecycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateContextReady
	StatePageReady
	StateNavigating
	StatePostActions
	StateCapturing
	StateTearingDown
	StateDone
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateConnecting:   "connecting",
	StateContextReady: "context-ready",
	StatePageReady:    "page-ready",
	StateNavigating:   "navigating",
	StatePostActions:  "post-actions",
	StateCapturing:    "capturing",
	StateTearingDown:  "tearing-down",
	StateDone:         "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
