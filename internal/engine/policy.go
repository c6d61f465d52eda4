package engine

import "github.com/amberseal/amberseal/internal/schema"

// Window sizes per memory type. Fixed policy constants: existing deployments
// depend on these exact values, so they are not user-configurable.
const (
	conversationWindow = 10
	summarizedWindow   = 5 // the running summary supplies the rest of the context
	longTermWindow     = 15
)

// windowBound maps a memory type to its window size. Unrecognized types get
// an empty window rather than an error, so a turn with malformed policy
// config still reaches the completion call.
func windowBound(t schema.MemoryType) int {
	switch t {
	case schema.MemoryConversation:
		return conversationWindow
	case schema.MemorySummarized:
		return summarizedWindow
	case schema.MemoryLongTerm:
		return longTermWindow
	}
	return 0
}

// SelectWindow returns the suffix of log the memory policy admits as model
// context. Pure: no side effects, output is an independent copy.
func SelectWindow(log *ConversationLog, cfg schema.MemoryPolicyConfig) []schema.Message {
	return log.Window(windowBound(cfg.MemoryType))
}
