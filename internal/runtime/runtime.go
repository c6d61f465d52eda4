// Package runtime orchestrates live agents around the engine: it
// instantiates agents from templates, rehydrates sessions from snapshots
// after a restart, serializes turns per agent, and persists one snapshot
// after every turn.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amberseal/amberseal/internal/engine"
	"github.com/amberseal/amberseal/internal/schema"
	"github.com/amberseal/amberseal/internal/store"
)

var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrTemplateNotFound = errors.New("template not found")
)

// Runtime owns the snapshot store, the template catalog, and the model
// gateway. Sessions are cached in memory per agent; a per-agent mutex
// serializes turns, so concurrent callers for the same agent queue up while
// different agents proceed in parallel.
type Runtime struct {
	store   *store.Store
	catalog *store.Catalog
	gateway schema.ModelGateway

	mu     sync.Mutex
	agents map[string]*handle
}

type handle struct {
	mu       sync.Mutex
	sess     *engine.Session
	lastUsed time.Time
	evicted  bool // set under mu; the handle is no longer in r.agents
}

// New constructs a Runtime. All collaborators are passed explicitly; there
// is no ambient state to look up.
func New(st *store.Store, catalog *store.Catalog, gateway schema.ModelGateway) *Runtime {
	return &Runtime{
		store:   st,
		catalog: catalog,
		gateway: gateway,
		agents:  make(map[string]*handle),
	}
}

// AgentInfo is the externally visible state of one agent.
type AgentInfo struct {
	ID         string                `json:"id"`
	TemplateID string                `json:"templateId"`
	Status     schema.AgentStatus    `json:"status"`
	Summary    schema.RunningSummary `json:"summary"`
	Messages   int                   `json:"messages"`
}

// CreateAgent instantiates a new agent from the template: empty log, zero
// interactions, status idle. The initial snapshot is persisted immediately.
func (r *Runtime) CreateAgent(templateID string) (AgentInfo, error) {
	tmpl, ok := r.catalog.Get(templateID)
	if !ok {
		return AgentInfo{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	agentID := uuid.NewString()
	sess := engine.NewSession(agentID, tmpl, r.gateway)
	if err := r.store.Save(sess.Snapshot()); err != nil {
		return AgentInfo{}, fmt.Errorf("persist new agent: %w", err)
	}

	r.mu.Lock()
	r.agents[agentID] = &handle{sess: sess, lastUsed: time.Now()}
	r.mu.Unlock()

	slog.Info("agent created", "agent", agentID, "template", templateID)
	return info(sess), nil
}

// TurnResult is what the HTTP layer serializes back to the client.
type TurnResult struct {
	Response string             `json:"response"`
	Status   schema.AgentStatus `json:"status"`
}

// ProcessMessage runs one turn against the agent and persists the resulting
// snapshot. Turn failures surface with the snapshot already saved (status
// error, user message retained). A persistence failure after a successful
// turn also surfaces: the in-memory state is correct, but the caller decides
// whether losing durability for this turn is acceptable.
func (r *Runtime) ProcessMessage(ctx context.Context, agentID, userText string) (TurnResult, error) {
	h, err := r.lockedHandle(agentID)
	if err != nil {
		return TurnResult{}, err
	}
	defer h.mu.Unlock()

	response, turnErr := h.sess.ProcessMessage(ctx, userText)
	saveErr := r.store.Save(h.sess.Snapshot())
	h.lastUsed = time.Now()

	if turnErr != nil {
		if saveErr != nil {
			slog.Warn("failed to persist errored turn", "agent", agentID, "err", saveErr)
		}
		return TurnResult{Status: h.sess.Status()}, turnErr
	}
	if saveErr != nil {
		return TurnResult{Response: response, Status: h.sess.Status()},
			fmt.Errorf("persist turn: %w", saveErr)
	}

	return TurnResult{Response: response, Status: h.sess.Status()}, nil
}

// Agent returns the current state of one agent.
func (r *Runtime) Agent(agentID string) (AgentInfo, error) {
	h, err := r.lockedHandle(agentID)
	if err != nil {
		return AgentInfo{}, err
	}
	defer h.mu.Unlock()
	return info(h.sess), nil
}

// History returns a copy of the agent's full conversation log.
func (r *Runtime) History(agentID string) ([]schema.Message, error) {
	h, err := r.lockedHandle(agentID)
	if err != nil {
		return nil, err
	}
	defer h.mu.Unlock()
	return h.sess.History(), nil
}

// ListAgents returns snapshot metadata for every persisted agent.
func (r *Runtime) ListAgents() ([]store.SnapshotMeta, error) {
	return r.store.List()
}

// DeleteAgent drops the cached session and removes the persisted snapshot.
func (r *Runtime) DeleteAgent(agentID string) error {
	r.mu.Lock()
	if h, ok := r.agents[agentID]; ok {
		h.mu.Lock()
		h.evicted = true
		h.mu.Unlock()
		delete(r.agents, agentID)
	}
	r.mu.Unlock()

	if err := r.store.Delete(agentID); err != nil {
		return err
	}
	slog.Info("agent deleted", "agent", agentID)
	return nil
}

// EvictIdle drops cached sessions untouched for at least idleFor and returns
// how many were evicted. State is already persisted after every turn, so
// eviction never loses data; the next message rehydrates from the snapshot.
func (r *Runtime) EvictIdle(idleFor time.Duration) int {
	cutoff := time.Now().Add(-idleFor)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, h := range r.agents {
		if !h.mu.TryLock() {
			continue // turn in flight
		}
		// Mark before unlocking so a caller who got this handle from
		// handleFor but has not locked it yet re-resolves instead of
		// running a turn on a handle no longer in the map.
		if h.lastUsed.Before(cutoff) {
			h.evicted = true
			delete(r.agents, id)
			evicted++
		}
		h.mu.Unlock()
	}
	if evicted > 0 {
		slog.Info("evicted idle agent sessions", "count", evicted)
	}
	return evicted
}

// lockedHandle returns the handle for agentID with its mutex held. A handle
// can be evicted between handleFor returning it and the lock being acquired;
// in that case it is discarded and the lookup retried, so a turn never runs
// on a handle that has already left the map.
func (r *Runtime) lockedHandle(agentID string) (*handle, error) {
	for {
		h, err := r.handleFor(agentID)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		if !h.evicted {
			return h, nil
		}
		h.mu.Unlock()
	}
}

// handleFor returns the cached handle for agentID, rehydrating the session
// from its snapshot on first touch after a restart or eviction.
func (r *Runtime) handleFor(agentID string) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.agents[agentID]; ok {
		return h, nil
	}

	snap, ok, err := r.store.Load(agentID)
	if err != nil {
		return nil, fmt.Errorf("load agent %s: %w", agentID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	}
	tmpl, ok := r.catalog.Get(snap.TemplateID)
	if !ok {
		return nil, fmt.Errorf("%w: agent %s references template %s",
			ErrTemplateNotFound, agentID, snap.TemplateID)
	}

	h := &handle{
		sess:     engine.RestoreSession(snap, tmpl, r.gateway),
		lastUsed: time.Now(),
	}
	r.agents[agentID] = h
	slog.Info("agent session rehydrated", "agent", agentID, "messages", len(snap.Messages))
	return h, nil
}

func info(s *engine.Session) AgentInfo {
	return AgentInfo{
		ID:         s.AgentID(),
		TemplateID: s.TemplateID(),
		Status:     s.Status(),
		Summary:    s.Summary(),
		Messages:   len(s.History()),
	}
}
