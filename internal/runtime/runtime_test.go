package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amberseal/amberseal/internal/schema"
	"github.com/amberseal/amberseal/internal/store"
)

type fakeGateway struct {
	completeErr error
	completions int
}

func (g *fakeGateway) Complete(context.Context, string, []schema.ContextEntry, schema.EngineConfig) (string, error) {
	g.completions++
	if g.completeErr != nil {
		return "", g.completeErr
	}
	return fmt.Sprintf("ack-%d", g.completions), nil
}

func (g *fakeGateway) Summarize(context.Context, string, schema.EngineConfig) (string, error) {
	return "condensed", nil
}

func newTestRuntime(t *testing.T, gw schema.ModelGateway) (*Runtime, string) {
	t.Helper()
	ws := t.TempDir()

	st, err := store.NewStore(ws)
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := store.NewCatalog(ws)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := schema.Template{
		ID:   "tmpl-1",
		Name: "keeper",
		Persona: schema.PersonaConfig{
			Traits: []string{"curious"}, Backstory: "b", Instructions: "i",
		},
		Memory: schema.MemoryPolicyConfig{
			MemoryType:           schema.MemoryConversation,
			SummarizationEnabled: true,
			RetentionPeriod:      schema.RetentionIndefinite,
		},
		Engine: schema.EngineConfig{Model: "m", MaxTokens: 64, Temperature: 0.7},
	}
	if _, err := catalog.Create(tmpl); err != nil {
		t.Fatal(err)
	}
	return New(st, catalog, gw), ws
}

func TestCreateProcessDelete(t *testing.T) {
	rt, _ := newTestRuntime(t, &fakeGateway{})

	agent, err := rt.CreateAgent("tmpl-1")
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if agent.Status != schema.StatusIdle || agent.Messages != 0 {
		t.Errorf("fresh agent = %+v, want idle with empty log", agent)
	}

	res, err := rt.ProcessMessage(context.Background(), agent.ID, "hello")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if res.Response != "ack-1" || res.Status != schema.StatusIdle {
		t.Errorf("turn result = %+v", res)
	}

	hist, err := rt.History(agent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Errorf("history length = %d, want 2", len(hist))
	}

	if err := rt.DeleteAgent(agent.ID); err != nil {
		t.Fatalf("DeleteAgent: %v", err)
	}
	if _, err := rt.ProcessMessage(context.Background(), agent.ID, "anyone?"); !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}

func TestCreateAgent_UnknownTemplate(t *testing.T) {
	rt, _ := newTestRuntime(t, &fakeGateway{})
	if _, err := rt.CreateAgent("ghost"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestProcessMessage_ProviderFailureSurfacesWithErrorStatus(t *testing.T) {
	gw := &fakeGateway{completeErr: &schema.ProviderError{Provider: "openai", Status: 500, Message: "down"}}
	rt, _ := newTestRuntime(t, gw)

	agent, err := rt.CreateAgent("tmpl-1")
	if err != nil {
		t.Fatal(err)
	}

	res, err := rt.ProcessMessage(context.Background(), agent.ID, "hello")
	if err == nil {
		t.Fatal("expected turn error")
	}
	if res.Status != schema.StatusError {
		t.Errorf("status = %q, want error", res.Status)
	}

	// The errored status and the retained user message are persisted.
	got, err := rt.Agent(agent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != schema.StatusError || got.Messages != 1 {
		t.Errorf("agent after failed turn = %+v, want error status and one message", got)
	}
}

func TestRehydration_SurvivesRuntimeRestart(t *testing.T) {
	gw := &fakeGateway{}
	rt, ws := newTestRuntime(t, gw)

	agent, err := rt.CreateAgent("tmpl-1")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := rt.ProcessMessage(context.Background(), agent.ID, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	// Simulate a process restart: new runtime over the same workspace.
	st, err := store.NewStore(ws)
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := store.NewCatalog(ws)
	if err != nil {
		t.Fatal(err)
	}
	rt2 := New(st, catalog, gw)

	got, err := rt2.Agent(agent.ID)
	if err != nil {
		t.Fatalf("Agent after restart: %v", err)
	}
	if got.Messages != 6 || got.Summary.Interactions != 6 {
		t.Errorf("rehydrated agent = %+v, want 6 messages and 6 interactions", got)
	}

	res, err := rt2.ProcessMessage(context.Background(), agent.ID, "still there?")
	if err != nil {
		t.Fatalf("turn after restart: %v", err)
	}
	if res.Response == "" {
		t.Error("empty response after rehydration")
	}
}

func TestEvictIdle(t *testing.T) {
	rt, _ := newTestRuntime(t, &fakeGateway{})

	agent, err := rt.CreateAgent("tmpl-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.ProcessMessage(context.Background(), agent.ID, "hi"); err != nil {
		t.Fatal(err)
	}

	if n := rt.EvictIdle(time.Hour); n != 0 {
		t.Errorf("evicted %d fresh sessions, want 0", n)
	}
	if n := rt.EvictIdle(0); n != 1 {
		t.Errorf("evicted %d sessions with zero idle threshold, want 1", n)
	}

	// Evicted agents rehydrate transparently on the next turn.
	res, err := rt.ProcessMessage(context.Background(), agent.ID, "back again")
	if err != nil {
		t.Fatalf("turn after eviction: %v", err)
	}
	if res.Status != schema.StatusIdle {
		t.Errorf("status = %q, want idle", res.Status)
	}
	hist, _ := rt.History(agent.ID)
	if len(hist) != 4 {
		t.Errorf("history length = %d, want 4", len(hist))
	}
}

func TestLockedHandle_RetriesPastEviction(t *testing.T) {
	rt, _ := newTestRuntime(t, &fakeGateway{})

	agent, err := rt.CreateAgent("tmpl-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.ProcessMessage(context.Background(), agent.ID, "hi"); err != nil {
		t.Fatal(err)
	}

	// A caller can obtain a handle and be evicted before locking it.
	stale, err := rt.handleFor(agent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n := rt.EvictIdle(0); n != 1 {
		t.Fatalf("evicted %d sessions, want 1", n)
	}
	if !stale.evicted {
		t.Fatal("evicted handle not marked")
	}

	h, err := rt.lockedHandle(agent.ID)
	if err != nil {
		t.Fatalf("lockedHandle: %v", err)
	}
	if h == stale {
		t.Error("lockedHandle returned the evicted handle")
	}
	if h.evicted {
		t.Error("lockedHandle returned a handle marked evicted")
	}
	h.mu.Unlock()

	// Deletion marks the cached handle the same way, so a stale holder
	// cannot resurrect the snapshot with a late turn.
	stale2, err := rt.handleFor(agent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.DeleteAgent(agent.ID); err != nil {
		t.Fatal(err)
	}
	if !stale2.evicted {
		t.Error("deleted agent's handle not marked evicted")
	}
	if _, err := rt.lockedHandle(agent.ID); !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("err = %v, want ErrAgentNotFound", err)
	}
}
