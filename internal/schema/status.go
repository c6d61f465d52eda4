package schema

// AgentStatus tracks whether a turn is in flight.
//
// StatusActive is only ever observable mid-turn; every ProcessMessage call
// leaves the session in StatusIdle or StatusError before returning.
// StatusError is advisory, not sticky: the next turn proceeds normally.
type AgentStatus string

const (
	StatusIdle   AgentStatus = "idle"
	StatusActive AgentStatus = "active"
	StatusError  AgentStatus = "error"
)
