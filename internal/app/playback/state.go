// Package playback implements the playback supervisor: the single
// live audio session, its per-mode control loops and the preemption
// protocol between successive sessions.
package playback

// Mode selects the control loop a session runs.
type Mode int

const (
	ModePlain         Mode = iota // play to completion, no channel sensitivity
	ModeInterruptible             // terminate the instant the channel goes busy
	ModePausing                   // pause on busy, resume from offset when clear
	ModeRepeating                 // restart from zero after each busy hit
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeInterruptible:
		return "interruptible"
	case ModePausing:
		return "pausing"
	case ModeRepeating:
		return "repeating"
	default:
		return "unknown"
	}
}

// State is the externally visible condition of the supervisor,
// reported to the status surface.
type State int

const (
	StateIdle            State = iota // nothing playing
	StateWaitingForClear              // waiting for the channel before starting
	StatePlaying                      // audio actively playing, busy output asserted
	StatePausedForBusy                // playback suspended while the channel is busy
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForClear:
		return "waiting_for_clear"
	case StatePlaying:
		return "playing"
	case StatePausedForBusy:
		return "paused_for_busy"
	default:
		return "unknown"
	}
}

// StatusSink receives state transitions for display. Implementations
// must not block.
type StatusSink interface {
	SetState(state State, item string)
}

type nopStatus struct{}

func (nopStatus) SetState(State, string) {}
