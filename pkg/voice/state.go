// ABOUTME: Agent and session state enums
// ABOUTME: String forms match what the UI displays
package voice

// AgentState is what the agent appears to be doing
type AgentState int32

const (
	Thinking AgentState = iota
	Speaking
	Listening
)

func (s AgentState) String() string {
	switch s {
	case Speaking:
		return "SPEAKING"
	case Listening:
		return "LISTENING"
	case Thinking:
		return "THINKING"
	default:
		return "UNKNOWN"
	}
}

// SessionState is the playback session lifecycle
type SessionState int32

const (
	Idle SessionState = iota
	Streaming
	Interrupted
	Ended
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Streaming:
		return "STREAMING"
	case Interrupted:
		return "INTERRUPTED"
	case Ended:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}
