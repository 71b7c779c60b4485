package session

import "fmt"

// State is the lifecycle position of a session. Values match the host constants.
type State int

const (
	Idle State = iota
	Initialized
	Preparing
	Prepared
	Started
	Paused
	Completed
	Stopped
	Error
	End
)

var stateNames = [...]string{
	Idle:        "idle",
	Initialized: "initialized",
	Preparing:   "preparing",
	Prepared:    "prepared",
	Started:     "started",
	Paused:      "paused",
	Completed:   "completed",
	Stopped:     "stopped",
	Error:       "error",
	End:         "end",
}

func (s State) String() string {
	if s < Idle || s > End {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) playing() bool {
	return s == Started
}

func (s State) playable() bool {
	switch s {
	case Prepared, Started, Paused, Completed:
		return true
	default:
		return false
	}
}

// terminal states discard engine callbacks.
func (s State) terminal() bool {
	return s == Error || s == End
}

func (s State) in(states ...State) bool {
	for _, candidate := range states {
		if s == candidate {
			return true
		}
	}
	return false
}
