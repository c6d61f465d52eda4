// Package engine contains the per-agent conversational-state machine:
// the conversation log, the memory policy that windows it, the
// summarization trigger, the context assembler, and the session that
// orchestrates them around each turn.
package engine

import "github.com/amberseal/amberseal/internal/schema"

// ConversationLog is the append-only ordered message sequence for one agent.
// It is owned exclusively by one Session and is not safe for concurrent use;
// callers serialize access per agent (see runtime.Runtime).
type ConversationLog struct {
	msgs []schema.Message
}

// NewConversationLog returns a log pre-populated with msgs, which may be nil.
func NewConversationLog(msgs ...schema.Message) *ConversationLog {
	out := make([]schema.Message, len(msgs))
	copy(out, msgs)
	return &ConversationLog{msgs: out}
}

// Append adds m to the end of the log. No persistence is touched; snapshot
// writes are the session caller's job.
func (l *ConversationLog) Append(m schema.Message) {
	l.msgs = append(l.msgs, m)
}

// Window returns the last n messages in original order, or fewer if the log
// is shorter. The result is an independent copy; later appends never mutate
// a window a caller already holds.
func (l *ConversationLog) Window(n int) []schema.Message {
	if n <= 0 {
		return nil
	}
	msgs := l.msgs
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]schema.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Len returns the current message count.
func (l *ConversationLog) Len() int { return len(l.msgs) }

// Messages returns a snapshot copy of the whole log.
func (l *ConversationLog) Messages() []schema.Message {
	return l.Window(len(l.msgs))
}
