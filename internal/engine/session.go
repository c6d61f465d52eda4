package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amberseal/amberseal/internal/schema"
)

// Session is the stateful orchestrator for one live agent. It owns the
// conversation log and running summary and applies the memory policy,
// summarization trigger, and context assembler around each turn.
//
// A Session is a pure in-memory state machine: it never touches persistence.
// The caller persists Snapshot() once per turn and must serialize concurrent
// ProcessMessage calls for the same agent; calls for different agents are
// fully independent.
type Session struct {
	agentID    string
	templateID string

	persona schema.PersonaConfig
	policy  schema.MemoryPolicyConfig
	engine  schema.EngineConfig
	gateway schema.ModelGateway

	status    schema.AgentStatus
	log       *ConversationLog
	summary   schema.RunningSummary
	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is the durable aggregate for one agent: everything needed to
// rehydrate its Session after a process restart. Snapshots are written after
// each turn; there is no write-ahead log, so a crash between the model
// response and the save loses at most that one turn.
type Snapshot struct {
	AgentID    string                `json:"agentId"`
	TemplateID string                `json:"templateId"`
	Status     schema.AgentStatus    `json:"status"`
	Summary    schema.RunningSummary `json:"summary"`
	Messages   []schema.Message      `json:"messages"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// NewSession creates a fresh session for an agent just instantiated from
// tmpl: empty log, zero interactions, status idle.
func NewSession(agentID string, tmpl schema.Template, gateway schema.ModelGateway) *Session {
	now := time.Now().UTC()
	return &Session{
		agentID:    agentID,
		templateID: tmpl.ID,
		persona:    tmpl.Persona,
		policy:     tmpl.Memory,
		engine:     tmpl.Engine,
		gateway:    gateway,
		status:     schema.StatusIdle,
		log:        NewConversationLog(),
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreSession rehydrates a session from a persisted snapshot. The
// template supplies the immutable persona/policy/engine configuration, which
// is not part of the durable per-agent state.
func RestoreSession(snap Snapshot, tmpl schema.Template, gateway schema.ModelGateway) *Session {
	return &Session{
		agentID:    snap.AgentID,
		templateID: snap.TemplateID,
		persona:    tmpl.Persona,
		policy:     tmpl.Memory,
		engine:     tmpl.Engine,
		gateway:    gateway,
		status:     snap.Status,
		log:        NewConversationLog(snap.Messages...),
		summary:    snap.Summary,
		createdAt:  snap.CreatedAt,
		updatedAt:  snap.UpdatedAt,
	}
}

// ProcessMessage runs one turn: record the user message, assemble context,
// call the model, record the reply, and run a summarization pass when due.
//
// A completion failure is fatal to the turn: status becomes error, the error
// surfaces to the caller, and no assistant message is appended — the user
// message stays in the log for retry and audit, but no partial reply is ever
// invented. Cancellation while awaiting the completion takes the same path.
//
// A summarization failure is swallowed after logging: the reply is already
// in hand, and losing one summary refresh only degrades long-term memory.
func (s *Session) ProcessMessage(ctx context.Context, userText string) (string, error) {
	s.status = schema.StatusActive

	s.log.Append(schema.NewUserMessage(userText))
	s.summary.Interactions++

	windowed := SelectWindow(s.log, s.policy)
	entries := BuildContext(s.persona, s.summary, windowed, s.summary.Interactions)

	response, err := s.gateway.Complete(ctx, userText, entries, s.engine)
	if err != nil {
		s.status = schema.StatusError
		s.updatedAt = time.Now().UTC()
		return "", fmt.Errorf("complete turn for agent %s: %w", s.agentID, err)
	}

	s.log.Append(schema.NewAssistantMessage(response))
	s.summary.Interactions++

	if SummarizationDue(s.policy, s.summary.Interactions) {
		s.refreshSummary(ctx)
	}

	s.status = schema.StatusIdle
	s.updatedAt = time.Now().UTC()
	return response, nil
}

// refreshSummary condenses the most recent messages into the running
// summary. Best-effort: failures are logged and the previous summary kept.
func (s *Session) refreshSummary(ctx context.Context) {
	blob := transcript(s.log.Window(summarizeEveryN))

	text, err := s.gateway.Summarize(ctx, blob, s.engine)
	if err != nil {
		slog.Warn("summarization failed, keeping previous summary", "agent", s.agentID, "err", err)
		return
	}

	now := time.Now().UTC()
	s.summary.Text = text
	s.summary.LastUpdated = &now
}

// Snapshot returns the durable aggregate for persistence. The message slice
// is an independent copy; mutating the session afterwards does not alias it.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		AgentID:    s.agentID,
		TemplateID: s.templateID,
		Status:     s.status,
		Summary:    s.summary,
		Messages:   s.log.Messages(),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

func (s *Session) AgentID() string            { return s.agentID }
func (s *Session) TemplateID() string         { return s.templateID }
func (s *Session) Status() schema.AgentStatus { return s.status }

// Summary returns the current running summary.
func (s *Session) Summary() schema.RunningSummary { return s.summary }

// History returns a snapshot copy of the full conversation log.
func (s *Session) History() []schema.Message { return s.log.Messages() }
