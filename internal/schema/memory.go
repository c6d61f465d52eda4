package schema

import "time"

// MemoryType selects which slice of the conversation log is sent to the
// model on each turn.
type MemoryType string

const (
	MemoryConversation MemoryType = "conversation"
	MemorySummarized   MemoryType = "summarized"
	MemoryLongTerm     MemoryType = "long_term"
)

// RetentionPeriod is declared per template but not enforced by the engine;
// it is carried through configuration for forward compatibility.
type RetentionPeriod string

const (
	RetentionSession    RetentionPeriod = "session"
	Retention24Hours    RetentionPeriod = "24h"
	Retention7Days      RetentionPeriod = "7d"
	Retention30Days     RetentionPeriod = "30d"
	RetentionIndefinite RetentionPeriod = "indefinite"
)

// MemoryPolicyConfig is the per-template memory policy. Immutable for the
// lifetime of an agent unless its template is explicitly reconfigured.
type MemoryPolicyConfig struct {
	MemoryType           MemoryType      `json:"memoryType" yaml:"memoryType"`
	SummarizationEnabled bool            `json:"summarizationEnabled" yaml:"summarizationEnabled"`
	RetentionPeriod      RetentionPeriod `json:"retentionPeriod" yaml:"retentionPeriod"`
}

// RunningSummary is the condensed memory standing in for conversation
// history beyond the policy window. Mutated only by the summarization step.
//
// Interactions counts appended messages (user and assistant both), so one
// user/assistant round-trip advances it by two.
type RunningSummary struct {
	Text         string     `json:"text"`
	Interactions int        `json:"interactionCount"`
	LastUpdated  *time.Time `json:"lastUpdated,omitempty"`
}
