package playback

// EventType classifies how a session progressed or ended.
type EventType int

const (
	EventStarted     EventType = iota // session accepted and beginning
	EventCompleted                    // file played to natural completion
	EventInterrupted                  // ended early by the busy channel
	EventPreempted                    // superseded by a newer play/stop call
	EventFailed                       // player process could not be started
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventCompleted:
		return "completed"
	case EventInterrupted:
		return "interrupted"
	case EventPreempted:
		return "preempted"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one entry on the supervisor's event stream.
type Event struct {
	Type    EventType
	Session string // session id
	File    string
	Display string
	Mode    Mode
}
